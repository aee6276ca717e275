package fixtures

// Document titles.
const (
	PrivacyTitle = "Privacy and policy"
	TermsTitle   = "Terms & Conditions"
	HelpTitle    = "HELP"
)

// EULATitleFragments must all appear in the EULA title.
var EULATitleFragments = []string{"End user", "Agreement (EULA)"}

// EULASections returns the sections every EULA carries, in document order.
func EULASections() []string {
	return []string{
		"Introduction",
		"Definitions",
		"Customer Responsibilities",
		"Access and Use",
		"Confidential Information",
		"Intellectual Property Ownership; Feedback",
		"Disclaimers",
		"Indemnification",
		"Limitations of Liability",
		"Term and Termination",
		"Miscellaneous",
	}
}

// EULADefinedTerms must be defined in the Definitions section.
var EULADefinedTerms = []string{"Aggregated Statistics", "Authorized User", "Customer Data", "Company IP"}

// PrivacySections returns the privacy policy sections with their items.
func PrivacySections() map[string][]string {
	return map[string][]string{
		"Personal Information": {
			"Name",
			"Email address",
			"Contact information",
			"User credentials (username and password)",
		},
		"Usage Data": {
			"Log files",
			"IP addresses",
			"Browser type",
			"Page visited",
			"Date and time of access",
		},
		"Device Information": {
			"Device type",
			"Operating system",
			"Unique device identifiers",
		},
		"How We Use Your Information": {
			"Provide and maintain our web app",
			"Improve and personalize user experience",
			"Send you updates, newsletters, and promotional material",
			"Respond to your inquiries and support requests",
			"Analyze usage patterns and trends",
		},
	}
}

// TermsParagraphs is the paragraph count per terms section.
var TermsParagraphs = map[string]int{"Section 1": 3, "Section 2": 3, "Section 3": 1}

// HelpSections are the help sections; each has one paragraph.
var HelpSections = []string{"Section 1", "Section 2", "Section 3"}

// HelpPrefix starts every help paragraph.
const HelpPrefix = "Lorem ipsum dolor sit amet consectetur"

// HelpPhrases appear in every help paragraph.
var HelpPhrases = []string{
	"Neque volutpat elit diam",
	"Magna sed rhoncus",
	"Pulvinar augue sit nisl",
	"Massa justo malesuada",
}
