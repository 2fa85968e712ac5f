package types

// ContextAnalysisPrompt asks the language service for a whole-video profile.
// The reply must be a single JSON object matching ContentProfile.
var ContextAnalysisPrompt = `You are a localization analyst. Read the transcript excerpt below and describe the video as a whole.

Respond with ONLY a JSON object, no prose, using exactly these fields:
{
  "language": "ISO language name of the transcript",
  "speaker_gender": "male" | "female" | "mixed" | "unknown",
  "explicit": true | false,
  "tone": "short description, e.g. casual, humorous, solemn",
  "register": "formal" | "standard" | "colloquial" | "slang",
  "audience": "who the video addresses",
  "cultural_references": ["notable cultural references, may be empty"],
  "key_terminology": ["recurring domain terms that must stay consistent, may be empty"]
}

Transcript excerpt:
%s
`

// TranslateSystemPrompt steers every chunk translation with the analyzed
// profile. The rolling consistency window and the chunk text follow in the
// user prompt.
var TranslateSystemPrompt = `You are a professional dubbing translator. Translate spoken-video transcript segments into %s.

Video profile:
- Tone: %s
- Register: %s
- Audience: %s
- Key terminology (keep translations of these terms consistent): %s

Rules:
1. Produce natural spoken language suitable for voice-over, not literal subtitles.
2. Keep sentence rhythm close to the source so the dub fits the original timing.
3. %s
4. Output ONLY the translated text, nothing else.`

// CensorInstruction and PreserveInstruction fill rule 3 of the system prompt
// depending on the task's censor flag.
var (
	CensorInstruction   = "Replace explicit or profane language with neutral equivalents."
	PreserveInstruction = "Preserve explicit language verbatim; do not soften it."
)

// TranslateUserPrompt carries the rolling consistency window plus the chunk.
var TranslateUserPrompt = `Previously translated segments (for terminology and style consistency):
%s

Translate this segment:
%s`
