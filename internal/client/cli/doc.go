// Package cli provides the interactive InstaChat terminal client.
//
// It wires configuration, local identity storage, the store transport and
// a chat Session, then runs a line-oriented REPL. Plain lines are sent to
// the active channel; lines starting with "/" are commands:
//
//	/join <name>      switch channel
//	/channels         list channels
//	/users            list users
//	/whoami           show the local identity
//	/register <name>  pick a username
//	/seed             create the default channels
//	/forget           drop the local identity
//	/help             show commands
//	/exit | /quit     leave
//
// A background watcher pings the store and shows online/offline in the
// prompt. The REPL is started via App.Run(ctx), which blocks until the user
// exits.
package cli
