// Command subremux runs the subtitle remux daemon and talks to it over HTTP.
//
// "subremux serve" runs the daemon in the foreground. The remaining commands
// (jobs, submit, browse, info, status) are thin clients of the daemon's API;
// --server and --token override the address and token derived from the
// configuration file.
package main
