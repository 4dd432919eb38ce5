// Package session drives the system ssh client against a single remote host.
//
// A Session negotiates client capabilities from the "ssh -V" banner, builds
// the baseline argument list once, optionally holds a multiplexed master
// connection open, and runs remote commands through an sshrpc.Runner.
//
// Construction is split from I/O: New only validates configuration and the
// identity file, Open negotiates, connects and resolves the remote home
// directory, and Close tears the master connection down.
//
//	s, err := session.Open(ctx,
//		session.WithHost("build01"),
//		session.WithLogin("deploy"),
//		session.WithIdentity("/home/deploy/.ssh/id_ed25519"),
//		session.WithMaster(true),
//	)
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	res, err := s.Run(ctx, "uname -a")
package session
