package ml

// Value is a single feature value. A value is either numeric or categorical;
// categorical values are only meaningful to models trained with native
// categorical support.
type Value struct {
	Num   float64
	Cat   string
	IsCat bool
}

// Num wraps a numeric feature value.
func Num(v float64) Value { return Value{Num: v} }

// Cat wraps a categorical feature value.
func Cat(s string) Value { return Value{Cat: s, IsCat: true} }

// Sample is one ordered feature row. Names and Values are index-aligned and
// the order must match the feature list the model was fit on.
type Sample struct {
	Names  []string
	Values []Value
}
