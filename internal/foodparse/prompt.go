package foodparse

import "fmt"

const promptTemplate = `Parse the following food description and return nutritional information.

Input: "%s"

Return a JSON object with this exact structure (no markdown, just raw JSON):
{
  "name": "food name",
  "servings": 1,
  "serving_unit": "description of one serving (e.g., '1 large egg', '1 cup', '100g')",
  "calories_per_serving": number,
  "protein_per_serving": number in grams,
  "carbs_per_serving": number in grams,
  "fat_per_serving": number in grams
}

Examples:
- "2 eggs" -> name: "Egg", servings: 2, serving_unit: "1 large egg", calories_per_serving: 78, protein_per_serving: 6, carbs_per_serving: 0.6, fat_per_serving: 5
- "bowl of oatmeal" -> name: "Oatmeal", servings: 1, serving_unit: "1 cup cooked", calories_per_serving: 150, protein_per_serving: 5, carbs_per_serving: 27, fat_per_serving: 3
- "grilled chicken breast" -> name: "Chicken Breast", servings: 1, serving_unit: "6 oz grilled", calories_per_serving: 280, protein_per_serving: 53, carbs_per_serving: 0, fat_per_serving: 6

Use your knowledge of nutrition to provide accurate estimates. If quantities are mentioned (like "2 eggs"), set servings accordingly. Return only the JSON object.`

// BuildPrompt embeds the user's food description in the parsing instructions.
func BuildPrompt(input string) string {
	return fmt.Sprintf(promptTemplate, input)
}
