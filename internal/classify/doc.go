// Package classify decides whether a call transcript means the dialed number
// works. It matches the transcript against carrier announcements such as
// "this number is not in service".
package classify
