package docparse

// promptSet holds the model instructions and user-visible placeholder
// strings for one output language.
type promptSet struct {
	rewriteSystem  string
	describeSystem string
	describeUser   string
	captionContext string // fmt verb: caption text
	ocrContext     string // fmt verb: OCR text
	notFound       string
	describeFailed string // fmt verb: error
}

var promptsJA = promptSet{
	rewriteSystem: "あなたは優秀な文書処理専門家です。" +
		"入力されるテキストはPDFから本文を抽出したものです。" +
		"本文には内容が崩れている箇所などがあるため、適宜修正してください。" +
		"ヘッダー、フッターは削除し、可能な限り内容は保持してください。" +
		"出力は処理済みの本文のみとし、説明は不要です。",
	describeSystem: "あなたは画像を説明する専門家です。画像の内容を詳細に日本語で説明してください。" +
		"以下の情報を参考にして、より正確で詳細な説明を提供してください：" +
		"1. 画像の実際の視覚的内容 " +
		"2. キャプション情報（参考情報として） " +
		"3. OCRで抽出されたテキスト情報（画像内の文字や数値など） " +
		"説明では、OCRで抽出されたテキスト情報も適切に組み込んで、" +
		"画像の内容をより正確に表現してください。",
	describeUser: "この画像の内容を詳細に説明してください。" +
		"画像内の文字、数値、ラベル、グラフの値など、" +
		"OCRで抽出されたテキスト情報も含めて、" +
		"可能な限り具体的で正確な説明を提供してください。",
	captionContext: "\n\nこの画像のキャプション情報: %s",
	ocrContext:     "\n\nこの画像からOCRで抽出されたテキスト情報: %s",
	notFound:       "画像が見つかりません",
	describeFailed: "画像説明の生成に失敗しました: %v",
}

var promptsEN = promptSet{
	rewriteSystem: "You are an expert document processor. " +
		"The input text was extracted from a PDF and may contain garbled passages. " +
		"Fix extraction artifacts, remove headers and footers, and preserve the " +
		"substantive content as much as possible. " +
		"Output only the processed body text, with no commentary.",
	describeSystem: "You are an expert at describing images. Describe the image content in detail in English. " +
		"Use the following to produce an accurate, detailed description: " +
		"1. the actual visual content of the image, " +
		"2. any caption information (as reference), " +
		"3. text extracted from the image via OCR (characters, numbers, labels). " +
		"Incorporate the OCR-extracted text into the description so the image " +
		"content is represented as precisely as possible.",
	describeUser: "Describe the content of this image in detail. " +
		"Include the OCR-extracted text — characters, numbers, labels, axis values — " +
		"and be as specific and accurate as possible.",
	captionContext: "\n\nCaption for this image: %s",
	ocrContext:     "\n\nText extracted from this image via OCR: %s",
	notFound:       "image not found",
	describeFailed: "failed to generate image description: %v",
}

// promptsFor returns the prompt set for a language code. Unknown codes
// fall back to Japanese, the original deployment's target language.
func promptsFor(lang string) promptSet {
	if lang == "en" {
		return promptsEN
	}
	return promptsJA
}
