package audit

// Overused generic phrases flagged as editorial quality warnings. Two tiers:
// strong markers are flagged on any occurrence, common phrases only when
// they cluster. Neither tier affects the audit score.

var genericPhrasesHigh = []string{
	"delve",
	"delve into",
	"landscape",
	"realm",
	"plethora",
	"myriad",
	"holistic",
	"game-changer",
	"revolutionary",
	"cutting-edge",
	"seamless",
	"robust",
	"in today's world",
	"in today's digital landscape",
	"it's important to note",
	"it's worth noting",
	"in conclusion",
	"dive deep",
	"harness",
	"unlock",
	"in this article we'll",
	"let's explore",
	"unlike traditional",
	"a testament to",
	"plays a crucial role",
	"facilitate",
	"foster",
	"empower",
	"elevate",
	"streamline",
	"pivotal",
	"paramount",
	"endeavor",
}

var genericPhrasesCommon = []string{
	"crucial",
	"comprehensive",
	"leverage",
	"utilize",
	"navigate",
	"when it comes to",
	"certainly,",
	"indeed,",
	"furthermore,",
	"moreover,",
	"in terms of",
	"ultimately,",
	"essentially,",
	"basically,",
	"this guide covers",
	"ensure your",
	"ensure that",
	"combined with",
}

var phraseSuggestions = map[string]string{
	"crucial":                      "key, needed, or be specific",
	"comprehensive":                "full, complete, or describe what's covered",
	"game-changer":                 "concrete claim or cut",
	"utilize":                      "use",
	"ensure your":                  "make sure",
	"ensure that":                  "make sure",
	"leverage":                     "use or take advantage of",
	"delve":                        "look at or explore",
	"delve into":                   "look at or explore",
	"myriad":                       "many or list examples",
	"plethora":                     "many or list examples",
	"holistic":                     "full or whole",
	"in conclusion":                "cut or end with a concrete takeaway",
	"it's important to note":       "here's what matters or keep in mind",
	"in today's digital landscape": "cut or use specific context",
	"in today's world":             "cut or use specific context",
	"revolutionary":                "concrete claim or cut",
	"cutting-edge":                 "concrete claim or cut",
	"combined with":                "plus or along with",
	"unlike traditional":           "say the contrast in plain language",
	"facilitate":                   "help or enable",
	"foster":                       "build or encourage",
	"empower":                      "enable or help",
	"elevate":                      "raise or improve",
	"streamline":                   "simplify or speed up",
}
