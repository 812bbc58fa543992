package output

// Printer renders command results.
type Printer interface {
	Print(v any) error
}
