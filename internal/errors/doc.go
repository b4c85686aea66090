// Package errors provides structured, coded errors for the hooks module.
//
// Every failure that crosses a package boundary carries a unique code
// (e.g. "E101") mapping to a short message, a longer explanation and a
// documentation URL. The underlying cause stays reachable through
// errors.Is / errors.As.
//
// # Error Categories
//
//   - codec: values that cannot be encoded or decoded
//   - storage: storage medium read/write failures
//   - lifecycle: use of a hook after its owner was torn down
//   - fetch: outbound request failures
//   - config: invalid configuration
//   - cli: command line usage errors
//
// # Usage
//
//	err := errors.New("E101").
//	    WithKey("darkModeEnabled").
//	    Wrap(jsonErr)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E101: Stored value could not be decoded
//	//
//	//   key: darkModeEnabled
//	//
//	//   The value stored under this key is not a valid encoding of the
//	//   requested type.
//	//
//	//   Cause: invalid character 'x' looking for beginning of value
package errors
