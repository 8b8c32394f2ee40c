// Package loader executes loader chains: ordered sequences of transform
// stages applied to one resource.
//
// A chain runs right-to-left. The last listed stage receives the raw resource
// content, its output becomes the input of the stage before it, and the first
// listed stage produces the chain's single final value. Stages may change the
// representation of the value along the way (bytes to a decoded document and
// back to bytes).
//
// Each stage decides at call time how it completes:
//
//   - Immediately, by returning Return(value) or Fail(err).
//   - Later, by calling Context.Async to obtain a single-shot Callback and
//     returning Detach(). The chain suspends until the callback fires.
//
// Mixing the two (detaching and then returning a value or error) or doing
// neither (returning the zero Result, or detaching without asking for a
// callback) fails the chain with a protocol violation. Marking the execution
// cacheable is independent of the completion mode.
package loader
