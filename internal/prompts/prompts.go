package prompts

// ============================================================================
// Inference Prompts (Vision Language Model)
// ============================================================================

// DefaultPrompt is the caller prompt used when none is supplied.
const DefaultPrompt = "a painting of"

// VLMSystemPrompt frames the captioning model as a short-caption generator.
// The user turn carries the merged caller + interpretation prompt.
const VLMSystemPrompt = `You are an art captioning model. Look at the image and write exactly one short, plain English sentence describing what it shows.

Rules:
- Continue from the hint you are given; if the hint is an unfinished phrase, your sentence must begin with it.
- Name the main subject first (for example: a mountain, the sea, a city, a flower).
- No lists, no quotes, no markdown, no preamble.
- At most 25 words.`

// ============================================================================
// Poetic Rewriting Lexicons
// ============================================================================

// Replacement is one ordered phrase substitution applied whole-word, case-insensitively.
type Replacement struct {
	Pattern string // regular expression without boundaries
	Poetic  string
}

// PoeticReplacements is applied top to bottom, each rule over the previous rule's output.
var PoeticReplacements = []Replacement{
	{`a painting of`, "a soul-borne glimpse of"},
	{`an image of`, "a timeless impression of"},
	{`a drawing of`, "a hand-woven tale of"},
	{`a scene of`, "a realm of"},
	{`an abstract of`, "a dreamscape of"},
	{`shows`, "reveals"},
	{`is shown`, "is unveiled"},
	{`depicts`, "echoes"},
	{`captures`, "immortalizes"},
	{`presents`, "unfolds"},
	{`features`, "celebrates"},
	{`is`, "exists as"},
	{`was created by`, "was conceived by"},
	{`brings forth`, "summons"},
	{`expresses`, "whispers"},
	{`shows the essence of`, "bares the heart of"},
	{`reveals the beauty of`, "uncovers the hidden poetry of"},
	{`in the style of`, "woven in the threads of"},
	{`symbolizes`, "is a reflection of"},
	{`is depicted as`, "is shaped as"},
	{`illustrates`, "paints a portrait of"},
	{`captures the spirit of`, "imbues the soul with"},
	{`is framed by`, "is embraced by"},
	{`holds the message of`, "carries the whispers of"},
}

// GenericCaptions are normalized captions too bland to keep.
var GenericCaptions = []string{"a painting.", "an image.", "a drawing."}

// RescueSentence replaces a generic caption wholesale.
const RescueSentence = "An untold story wrapped in strokes of color, waiting to unfold."

// Flourishes are occasionally appended as "It is {flourish}.".
var Flourishes = []string{
	"an eternal dance of light and shadow",
	"a melody painted with color",
	"a fleeting moment captured in time",
	"the soul’s expression through the canvas",
	"a voyage of imagination",
	"the visual language of the heart",
	"a dream woven in hues",
	"an invitation to an unseen world",
	"a journey into the unknown",
	"the echoes of a distant memory",
	"a canvas that breathes emotion",
}

// Expansion maps a mood or style word to a longer descriptive phrase.
type Expansion struct {
	Word   string
	Phrase string
}

// MoodExpansions is evaluated in order; each word is expanded at most once per occurrence.
var MoodExpansions = []Expansion{
	{"fresh", "a breath of air from untouched forests"},
	{"natural", "born from the earth, eternal and pure"},
	{"balanced", "a perfect harmony of elements"},
	{"structured", "a carefully designed masterpiece"},
	{"calm", "the quiet stillness of dawn"},
	{"energetic", "an explosion of life and color"},
	{"abstract", "a fluid dance of chaotic yet beautiful lines"},
	{"vibrant", "a burst of living energy captured in hues"},
}

// ============================================================================
// Titles & Descriptions
// ============================================================================

// TitlePrefixes is the pool the title selector rotates through.
var TitlePrefixes = []string{
	"Echoes of", "Dreams of", "Whispers of", "Visions of", "Reflections of",
	"Colors of", "Mysteries of", "Fragments of", "Shadows of", "Light of",
	"Essence of", "Harmony in", "The Spirit of", "A Tale of", "Journey through",
	"Moments of", "Rhythms of", "Brushstrokes of", "Symphony of", "Pulse of",
	"Grace in", "Winds of", "Fire within", "Textures of", "A Glimpse of",
	"Embrace of", "Mirrors of", "Truth in", "Awakening of", "Whirlwind of",
	"Energy of", "Timeless", "Wonders of", "Solitude in", "Waves of",
	"Heart of", "Balance in", "Murmurs of", "Beyond the", "Cradle of",
}

// DescriptionEntry maps a lowercase content keyword to its description sentence.
type DescriptionEntry struct {
	Keyword  string
	Sentence string
}

// Descriptions is the curated keyword table; order breaks similarity ties.
var Descriptions = []DescriptionEntry{
	{"sea", "Waves dance gently under a silver sky."},
	{"tree", "Branches whisper stories of time and growth."},
	{"sun", "A warm glow embraces the earth quietly."},
	{"moon", "Soft light graces the calm of night."},
	{"mountain", "Majestic peaks rise in tranquil power."},
	{"flower", "Petals bloom with delicate confidence."},
	{"desert", "Endless sands shimmer with ancient secrets."},
	{"city", "The skyline hums with quiet ambition."},
	{"rain", "Raindrops compose a song of longing."},
	{"bird", "Wings trace freedom across open skies."},
	{"forest", "A symphony of life rustles in the leaves."},
	{"cloud", "Soft shapes drift in a boundless ballet."},
	{"river", "A winding whisper of time and memory."},
	{"fire", "Crimson flames dance in wild rhythm."},
	{"dream", "A surreal landscape of feeling and thought."},
	{"sky", "The heavens stretch in infinite wonder."},
	{"ice", "Frozen beauty in silent brilliance."},
	{"light", "Illumination wraps the world in warmth."},
	{"shadow", "Mystery walks softly in the dark."},
	{"wind", "Invisible threads stir stories untold."},
}

// FallbackDescriptions are used when no keyword is close enough.
var FallbackDescriptions = []string{
	"A silent expression of emotion and color.",
	"An untold story painted in hues and shapes.",
	"A visual echo of thoughts unspoken.",
	"Where feelings take form beyond words.",
	"A poetic dance between color and soul.",
}

// ============================================================================
// Feedback Lexicon
// ============================================================================

// Feedback keywords, checked in this order.
var (
	FeedbackPoeticWords = []string{"poetic", "poem", "lyrical", "dreamy"}
	FeedbackSimpleWords = []string{"simple", "simplify", "short", "shorter", "concise"}
	FeedbackDetailWords = []string{"detail", "detailed", "elaborate", "more"}
)

// DetailSentences are appended when feedback asks for more detail.
var DetailSentences = []string{
	"Every stroke carries a quiet intention.",
	"Layers of color gather into a single breath.",
	"Light and texture meet at the edges of the form.",
	"Small gestures in the composition hold the eye a moment longer.",
	"The palette lingers between memory and motion.",
}
