package suggest

import "fmt"

const promptTemplate = "You are an expert coding assistant. Analyze the following code and provide helpful suggestions for improvement, completion, bug fixes, or optimization.\n" +
	"\n" +
	"Code:\n" +
	"```\n" +
	"%s\n" +
	"```\n" +
	"\n" +
	"Please provide:\n" +
	"1. Brief analysis of the code\n" +
	"2. Specific suggestions for improvement\n" +
	"3. Any potential issues or bugs\n" +
	"4. Best practices recommendations\n" +
	"\n" +
	"Keep your response clear, concise, and actionable."

// BuildPrompt wraps code in the fixed instructional prompt
func BuildPrompt(code string) string {
	return fmt.Sprintf(promptTemplate, code)
}
