package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ruffel/sshrpc"
	"github.com/ruffel/sshrpc/facts"
	"github.com/ruffel/sshrpc/session"
	"github.com/ruffel/sshrpc/transfer"
	"github.com/spf13/cobra"
)

func (a *app) execCommand() *cobra.Command {
	var (
		dir      string
		env      []string
		expect   int
		sudo     bool
		sudoUser string
	)

	cmd := &cobra.Command{
		Use:   "exec -- command [args...]",
		Short: "Run a command on the remote host",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.execOptions(cmd)
			if err != nil {
				return err
			}

			envMap, err := parseEnv(env)
			if err != nil {
				return err
			}

			var capture sshrpc.Capture

			opts = append(opts,
				sshrpc.WithDir(dir),
				sshrpc.WithEnvMap(envMap),
				sshrpc.WithExpectedReturn(expect),
				sshrpc.WithCapture(&capture),
			)

			if sudo || sudoUser != "" {
				opts = append(opts, sshrpc.WithSudo(sshrpc.WithSudoUser(sudoUser)))
			}

			return a.withSession(cmd, func(s *session.Session) error {
				res, err := s.Execute(cmd.Context(), sshrpc.NewCommand(strings.Join(args, " "), opts...))

				fmt.Fprint(cmd.OutOrStdout(), capture.Stdout)
				fmt.Fprint(cmd.ErrOrStderr(), capture.Stderr)

				var mismatch *sshrpc.MismatchError
				if errors.As(err, &mismatch) && !mismatch.TimedOut {
					return &exitCodeError{code: res.ExitCode, err: err}
				}

				return err
			})
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "C", "", "remote working directory")
	cmd.Flags().StringArrayVarP(&env, "env", "e", nil, "environment assignment KEY=VALUE (repeatable)")
	cmd.Flags().IntVar(&expect, "expect", 0, "expected exit code")
	cmd.Flags().BoolVar(&sudo, "sudo", false, "run under sudo")
	cmd.Flags().StringVar(&sudoUser, "sudo-user", "", "run under sudo as this user")

	return cmd
}

func (a *app) homeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "home",
		Short: "Print the remote home directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withSession(cmd, func(s *session.Session) error {
				home, err := s.Home(cmd.Context())
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), home)

				return nil
			})
		},
	}
}

func (a *app) factsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "facts",
		Short: "Gather host facts and print them as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withSession(cmd, func(s *session.Session) error {
				f, err := facts.Gather(cmd.Context(), s)
				if err != nil {
					return err
				}

				out, err := f.YAML()
				if err != nil {
					return err
				}

				_, err = cmd.OutOrStdout().Write(out)

				return err
			})
		},
	}
}

func (a *app) syncCommand() *cobra.Command {
	var (
		reverse  bool
		del      bool
		excludes []string
	)

	cmd := &cobra.Command{
		Use:   "sync local remote",
		Short: "Mirror a local path to the remote host with rsync (or back with --reverse)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.transferOptions(cmd)

			if reverse {
				opts = append(opts, transfer.WithReverse())
			}

			if del {
				opts = append(opts, transfer.WithDelete())
			}

			if len(excludes) > 0 {
				opts = append(opts, transfer.WithExclude(excludes...))
			}

			return a.withSession(cmd, func(s *session.Session) error {
				return transfer.Sync(cmd.Context(), s, args[0], args[1], opts...)
			})
		},
	}

	cmd.Flags().BoolVarP(&reverse, "reverse", "r", false, "copy from the remote host to the local path")
	cmd.Flags().BoolVar(&del, "delete", false, "delete extraneous files from the receiving side")
	cmd.Flags().StringArrayVar(&excludes, "exclude", nil, "rsync exclude pattern (repeatable)")

	return cmd
}

func (a *app) putCommand() *cobra.Command {
	var mode uint32

	cmd := &cobra.Command{
		Use:   "put local remote",
		Short: "Upload a file over sftp",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.transferOptions(cmd)
			if mode != 0 {
				opts = append(opts, transfer.WithPermissions(os.FileMode(mode)))
			}

			return a.withSession(cmd, func(s *session.Session) error {
				return transfer.Put(cmd.Context(), s, args[0], args[1], opts...)
			})
		},
	}

	cmd.Flags().Uint32Var(&mode, "mode", 0, "remote file mode, e.g. 0o644 (default: the local mode)")

	return cmd
}

func (a *app) fetchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch remote local",
		Short: "Download a file or directory tree over sftp",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(s *session.Session) error {
				return transfer.Fetch(cmd.Context(), s, args[0], args[1], a.transferOptions(cmd)...)
			})
		},
	}
}

func (a *app) retrieveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "retrieve source remote-dir",
		Short: "Place a local file or URL into a remote directory and verify it arrived",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(s *session.Session) error {
				remote, err := transfer.Retrieve(cmd.Context(), s, args[0], args[1], a.transferOptions(cmd)...)
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), remote)

				return nil
			})
		},
	}
}

func (a *app) transferOptions(cmd *cobra.Command) []transfer.Option {
	var opts []transfer.Option

	timeout := a.config.Defaults.Timeout
	if cmd.Flags().Changed("timeout") {
		timeout = a.flags.timeout
	}

	if timeout > 0 {
		opts = append(opts, transfer.WithTimeout(timeout))
	}

	return opts
}

func parseEnv(pairs []string) (map[string]string, error) {
	env := make(map[string]string, len(pairs))

	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid environment assignment %q (want KEY=VALUE)", p)
		}

		env[k] = v
	}

	return env, nil
}
