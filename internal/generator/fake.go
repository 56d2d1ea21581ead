package generator

import "context"

// Fake is an in-memory Adapter for tests and the CLI's "generate" command,
// returning a canned result or a queued error.
type Fake struct {
	Result *Result
	Err    error

	Calls []FakeCall
}

// FakeCall records one call's arguments for assertions.
type FakeCall struct {
	Positive string
	Negative string
	Settings Settings
}

// Generate implements Adapter.
func (f *Fake) Generate(_ context.Context, positive, negative string, settings Settings) (*Result, error) {
	f.Calls = append(f.Calls, FakeCall{Positive: positive, Negative: negative, Settings: settings})

	if f.Err != nil {
		return nil, f.Err
	}

	if f.Result != nil {
		return f.Result, nil
	}

	return &Result{
		Images:    []Image{{URL: "https://example.test/generated.png", Width: 1024, Height: 1536}},
		LatencyMS: 1200,
	}, nil
}
