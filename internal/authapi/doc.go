// Package authapi is the client for the awful-auth service, the external
// API that proves control of a Something Awful forum account by asking the
// user to place a generated hash in their profile.
package authapi
