package evolution

import "fmt"

const instructionTemplate = `
You are an expert AI prompt engineer.
I will give you a simple concept: "%s".

Generate exactly %d distinct versions of this prompt, evolving it step-by-step:
1. Raw/Naive (The user's input)
2. Slightly improved (Added basic subject details)
3. More descriptive (Added style and mood)
4. Professional quality (Added lighting, texture, camera settings)
5. Cinematic Masterpiece (Highly detailed, complex, artistic)

Return ONLY a raw JSON array of strings.
Do not include markdown formatting like ` + "```json" + `.
Example format: ["prompt1", "prompt2", "prompt3", "prompt4", "prompt5"]
`

// BuildInstruction interpolates the concept into the fixed evolution instruction.
func BuildInstruction(concept string) string {
	return fmt.Sprintf(instructionTemplate, concept, StageCount)
}
