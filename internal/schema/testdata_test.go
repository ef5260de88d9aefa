package schema

const youtubeCUE = `
form: youtube: {
	mode: "onTouched"

	shape: {
		username: string
		email:    string
		channel:  string
		social: {
			twitter:  string
			facebook: string
		}
		phoneNumbers: [...string]
		phNumbers: [...{number: string}]
		age: int
		dob: string
	}

	defaults: {
		username: "Batman"
		email:    ""
		channel:  ""
		social: {twitter: "", facebook: ""}
		phoneNumbers: ["", ""]
		phNumbers: [{number: ""}]
		age: 0
		dob: ""
	}

	fields: {
		username: required: "Username is required"
		email: {
			required: {value: true, message: "Email is required"}
			pattern: {value: "^[^@ ]+@[^@ ]+$", message: "Invalid email format"}
			validate: {
				notAdmin: {notEqual: "admin@example.com", message: "Enter a different email address"}
				notBlacklisted: {notSuffix: "baddomain.com", message: "This domain is not supported"}
			}
		}
		channel: required: "Channel is required"
		"social.twitter": validate: handle: {notPrefix: "@", message: "Omit the @"}
		age: {
			required:      "Age is required"
			valueAsNumber: true
			validate: adult: {min: 18, message: "Too young"}
		}
		dob: {required: true, valueAsDate: true}
	}
}
`
