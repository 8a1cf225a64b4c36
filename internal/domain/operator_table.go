package domain

// knownOperators maps "<MCC>-<MNC>" to a carrier brand for neighbor cells
// that do not broadcast an operator name.
var knownOperators = map[string]string{
	// India: Reliance Jio
	"405-840": "Jio", "405-854": "Jio", "405-855": "Jio",
	"405-856": "Jio", "405-857": "Jio", "405-858": "Jio",
	"405-859": "Jio", "405-860": "Jio", "405-861": "Jio",
	"405-862": "Jio", "405-863": "Jio", "405-864": "Jio",
	"405-865": "Jio", "405-866": "Jio", "405-867": "Jio",
	"405-868": "Jio", "405-869": "Jio", "405-870": "Jio",
	"405-871": "Jio", "405-872": "Jio", "405-873": "Jio",
	"405-874": "Jio",

	// India: Airtel
	"404-10": "Airtel", "404-31": "Airtel", "404-40": "Airtel",
	"404-45": "Airtel", "404-49": "Airtel", "404-92": "Airtel",
	"404-93": "Airtel", "404-94": "Airtel", "404-95": "Airtel",
	"404-96": "Airtel", "404-97": "Airtel", "404-98": "Airtel",
	"405-05": "Airtel", "405-52": "Airtel", "405-53": "Airtel",
	"405-54": "Airtel", "405-55": "Airtel", "405-56": "Airtel",

	// India: Vodafone Idea
	"404-11": "Vi", "404-13": "Vi", "404-15": "Vi",
	"404-20": "Vi", "404-22": "Vi", "404-24": "Vi",
	"404-27": "Vi", "404-30": "Vi", "404-43": "Vi",
	"404-46": "Vi", "404-60": "Vi", "404-84": "Vi",
	"404-86": "Vi", "404-88": "Vi", "405-66": "Vi",
	"405-67": "Vi", "405-70": "Vi",

	// India: BSNL
	"404-34": "BSNL", "404-36": "BSNL", "404-38": "BSNL",
	"404-51": "BSNL", "404-53": "BSNL", "404-55": "BSNL",
	"404-57": "BSNL", "404-58": "BSNL", "404-59": "BSNL",
	"404-62": "BSNL", "404-64": "BSNL", "404-66": "BSNL",
	"404-71": "BSNL", "404-72": "BSNL", "404-73": "BSNL",
	"404-74": "BSNL", "404-77": "BSNL", "404-80": "BSNL",

	// India: MTNL
	"404-68": "MTNL", "404-69": "MTNL",

	// US
	"310-260": "T-Mobile", "310-410": "AT&T",
	"311-480": "Verizon", "310-120": "Sprint",

	// UK
	"234-10": "O2", "234-15": "Vodafone UK",
	"234-20": "Three", "234-30": "EE", "234-33": "EE",
}
