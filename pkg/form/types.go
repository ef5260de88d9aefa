package form

import (
	"github.com/roach88/formstate/internal/fieldarray"
	"github.com/roach88/formstate/internal/path"
	"github.com/roach88/formstate/internal/registry"
	"github.com/roach88/formstate/internal/subscription"
	"github.com/roach88/formstate/internal/validation"
)

// Paths and shapes.
type (
	Path             = path.Path
	Shape            = path.Shape
	InvalidPathError = path.InvalidPathError
)

// Validation.
type (
	Rules          = validation.Rules
	Required       = validation.Required
	Pattern        = validation.Pattern
	Custom         = validation.Custom
	Predicate      = validation.Predicate
	AsyncPredicate = validation.AsyncPredicate
	Error          = validation.Error
	Errors         = validation.Errors
)

// State and defaults.
type (
	State         = registry.FormState
	Status        = registry.Status
	SetOptions    = registry.SetOptions
	Source        = registry.Source
	Producer      = registry.Producer
	DefaultsError = registry.DefaultsError
	Kind          = registry.Kind
)

// Field arrays.
type (
	FieldArray          = fieldarray.Controller
	Item                = fieldarray.Item
	IDGenerator         = fieldarray.IDGenerator
	StaleReferenceError = fieldarray.StaleReferenceError
)

// Subscriptions.
type (
	Selector     = subscription.Selector
	DerivedKind  = subscription.DerivedKind
	Notification = subscription.Notification
	Subscription = subscription.Subscription
)

const (
	StatusLoading = registry.StatusLoading
	StatusReady   = registry.StatusReady
	StatusFailed  = registry.StatusFailed

	DerivedErrors        = subscription.Errors
	DerivedDirtyFields   = subscription.DirtyFields
	DerivedTouchedFields = subscription.TouchedFields
	DerivedIsDirty       = subscription.IsDirty
	DerivedStatus        = subscription.Status
	DerivedValidating    = subscription.Validating
	DerivedSubmission    = subscription.Submission
)

var (
	ParsePath = path.Parse
	MustPath  = path.MustParse

	Literal  = registry.Literal
	Func     = registry.Func
	Deferred = registry.Deferred

	AllValues  = subscription.AllValues
	Paths      = subscription.Paths
	Derived    = subscription.Derived
	Everything = subscription.Everything

	RequiredRule = validation.RequiredRule
	PatternRule  = validation.PatternRule
	Check        = validation.Check
	Async        = validation.Async

	NewSequenceGenerator = fieldarray.NewSequenceGenerator
	NewFixedGenerator    = fieldarray.NewFixedGenerator

	ObjectOf = path.ObjectOf
	ArrayOf  = path.ArrayOf
	ScalarOf = path.ScalarOf
	AnyShape = path.Any

	IsInvalidPath    = path.IsInvalidPath
	IsStaleReference = fieldarray.IsStaleReference
	IsDefaultsFailed = registry.IsDefaultsFailed

	ParseDerivedKind = subscription.ParseDerivedKind
)
