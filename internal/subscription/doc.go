// Package subscription fans committed registry changes out to consumers.
//
// A subscriber picks what it depends on with a Selector. Value selectors
// match on the paths a commit wrote; derived selectors compare one
// aggregate of FormState before and after the commit and stay silent when
// it did not change. Delivery is synchronous on the committing goroutine
// and strictly in commit order for each subscription.
package subscription
