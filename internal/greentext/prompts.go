package greentext

import "fmt"

// promptTemplate is the fixed instruction sent to the generator. The single
// %s receives the trimmed journal entry.
const promptTemplate = `Turn this personal journal entry into a classic 4chan-style greentext story.
Keep it short, ironic, self-roasting, use > at the start of every line, end with mfw/tfw if it fits.
Keep the output length directly proportional to your input length.
occasionaly use the format whatthefuck.fileextension to express an emotion

for example:
> be me
> wake up on xmas day
> mariahCarey24/7.mp3
> immediately kill myself
> at least the food is good
> mfw christmas dinner stopped me from ropemaxxing

Make it funny and absurd even if the day was bad. Journal entry: %s`

// BuildPrompt embeds content in the fixed greentext instruction.
func BuildPrompt(content string) string {
	return fmt.Sprintf(promptTemplate, content)
}
