package analysis

import "strings"

const systemPrompt = `You are a real estate analyst. You analyze Greek auction documents and extract structured information, replying with valid JSON only.`

// promptTemplate fixes the eight-field reply schema the model is asked
// to honor. The adapter never assumes compliance; see ParseReply.
const promptTemplate = `Analyze the following Greek auction document and extract structured information.

Return a valid JSON with the following keys:
- "property_area": Total area in square meters (combine if multiple, e.g., for multiple floors or spaces). Use only numbers as float (e.g., 130.06). Accept formats like "εμβαδόν 88,52 τ.μ.", "88,52 τ.μ.", "συνολική επιφάνεια 124,35". If not found, return null.
- "starting_price": Starting price in euros. Use only numbers as float (e.g., 123000.0). If not found, return null.
- "address": Street, number, area. Combine multiple lines if needed. Normalize and clean address fields (remove extra line breaks, labels like "Οδός", etc.). If not found, return "N/A".
- "property_description": One or two sentence description of the property usage/type/location. If not found, return "N/A".
- "notes": Any special conditions or clauses like rights, restrictions, mortgages, liens, third-party rights, servitudes, pending legal issues, or if the auction is related to debt, mortgage, or enforcement. If not found, return "N/A".
- "occupancy_status":
  - If text contains: "κατοικείται", "ένοικος", "μισθωτήριο", "ενοικιαστής", "διαμένει" -> return "Κατοικείται"
  - If contains: "ακατοίκητο", "μη κατοικούμενο", "χωρίς χρήση" -> return "Ακατοίκητο"
  - If contains: "εκκενωμένο", "εκκενώθηκε" -> return "Εκκενωμένο"
  - Otherwise -> return "N/A"
- "is_bankruptcy": true if the text contains any of the following: "πτώχευση", "εκκαθάριση", "ειδική διαχείριση", "πτωχευτική διαδικασία", "υπό εκκαθάριση", "λύση εταιρείας", otherwise false.
- "property_type": The specific type of property (e.g., "Διαμέρισμα", "Οικόπεδο", "Αγροτεμάχιο", "Κατάστημα", "Μονοκατοικία"). Try to infer from descriptions even if not explicit. If not found, return "N/A".

ADDITIONAL RULES:
- For Greek numbers like "94.000,50", convert to float: 94000.5
- Accept formats like "εμβαδόν 88,52 τ.μ.", "88,52 τ.μ.", "συνολική επιφάνεια 124,35"
- If multiple areas are mentioned (e.g., 2 floors), sum them.
- Normalize and clean address fields (remove extra line breaks, labels like "Οδός", etc.)
- If auction is related to debt, mortgage, enforcement, extract that into "notes".

Example output format:
{
  "property_area": 344.06,
  "starting_price": 123000.0,
  "address": "Παπαζαχαρίου 54, Λάρισα, Φιλιππούπολη",
  "property_description": "Διαμέρισμα πρώτου ορόφου, κατάλληλο για κατοικία.",
  "notes": "Υπάρχει υποθήκη υπέρ της Συνεταιριστικής Τράπεζας Θεσσαλίας.",
  "occupancy_status": "Κατοικείται",
  "is_bankruptcy": false,
  "property_type": "Διαμέρισμα"
}

Document:
`

// BuildPrompt assembles the analysis prompt for the given document text.
func BuildPrompt(text string) string {
	var sb strings.Builder
	sb.WriteString(promptTemplate)
	sb.WriteString("\n")
	sb.WriteString(text)
	return sb.String()
}
