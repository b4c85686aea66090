// Package fetch loads JSON from a URL and tracks the request's progress as
// reactive state.
//
// A Resource is always in exactly one of three states:
//
//   - Loading: a request is in flight
//   - Ready: the response was 2xx and its body decoded into T
//   - Failed: the request failed, the status was not 2xx, or the body
//     did not decode
//
// Results are applied on the dispatcher. Changing the URL cancels the
// request in flight and discards anything it would have produced; so does
// disposing the owner the Resource was created under. There are no retries
// and no caching.
//
//	user := fetch.New[User](loop, "https://api.example.com/users/1")
//
//	reactive.CreateEffect(func() reactive.Cleanup {
//	    switch {
//	    case user.Loading():
//	        render("Loading...")
//	    case user.Error() != "":
//	        code, _ := user.StatusCode()
//	        render(fmt.Sprintf("Error: %s (status %d)", user.Error(), code))
//	    default:
//	        u, _ := user.Data()
//	        render(u.Login)
//	    }
//	    return nil
//	})
package fetch
