// Package schema compiles declarative form definitions written in CUE.
//
// A definition lives under form.<name> and declares the value shape with
// CUE types, the defaults as a concrete struct, and the rules of each
// registered field keyed by its dotted path:
//
//	form: signup: {
//		mode: "onTouched"
//		shape: {
//			username: string
//			email:    string
//			phNumbers: [...{number: string}]
//			age: int
//		}
//		defaults: username: "Batman"
//		fields: {
//			username: required: "Username is required"
//			email: {
//				required: true
//				pattern: {value: "^.+@.+$", message: "Invalid email format"}
//				validate: notAdmin: {notEqual: "admin@example.com", message: "Enter a different email address"}
//			}
//			age: {required: true, valueAsNumber: true}
//		}
//	}
//
// Custom predicates are declarative (notEqual, notPrefix, notSuffix,
// equalsField, notEqualField, minLength, maxLength, min, max, oneOf) or
// name a Go predicate in a Catalog with ref.
package schema
