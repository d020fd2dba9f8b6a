// Package password provides the default one-way password hasher (argon2id
// in PHC string format) and the registration-time strength policy.
//
// The Engine depends only on the Hasher interface defined in the root
// package; this package is the stock implementation. Verify compares in
// constant time. Strength checking is entropy-based and configured
// independently of the hash cost parameters.
package password
