package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	pop3 "github.com/BrianLeishman/go-pop3"
	"github.com/davecgh/go-spew/spew"
	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// withSession runs fn on a logged-in session and always sends QUIT afterwards
func withSession(fn func(s *pop3.Session) error) error {
	sess, err := connect()
	if err != nil {
		return err
	}
	err = fn(sess)
	if qerr := sess.Disconnect(); err == nil {
		err = qerr
	}
	return err
}

func messageNumber(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid message number %q", arg)
	}
	return n, nil
}

var statCmd = &cobra.Command{
	Use:   "stat",
	Short: "Show the message count and mailbox size",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withSession(func(s *pop3.Session) error {
			count, size, err := s.Statistics()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.dump {
				spew.Fdump(out, count, size)
				return nil
			}
			fmt.Fprintf(out, "%s messages, %s\n", humanize.Comma(int64(count)), humanize.Bytes(size))
			return nil
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List message sizes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withSession(func(s *pop3.Session) error {
			sizes, err := s.List()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.dump {
				spew.Fdump(out, sizes)
				return nil
			}
			return printTable(out, len(sizes), func(i int) string {
				return humanize.Bytes(sizes[i])
			})
		})
	},
}

var uidlCmd = &cobra.Command{
	Use:   "uidl",
	Short: "List unique message ids",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withSession(func(s *pop3.Session) error {
			ids, err := s.UIDL()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.dump {
				spew.Fdump(out, ids)
				return nil
			}
			return printTable(out, len(ids), func(i int) string {
				return ids[i]
			})
		})
	},
}

var headersCmd = &cobra.Command{
	Use:   "headers",
	Short: "Show sender, subject and date of every message",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withSession(func(s *pop3.Session) error {
			count, _, err := s.Statistics()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "#\tSIZE\tFROM\tSUBJECT\tDATE")
			for n := 1; n <= count; n++ {
				size, err := s.MessageSize(n)
				if err != nil {
					return err
				}
				m, err := s.GetHeader(n)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", n, humanize.Bytes(size), m.ReplyTo(), m.Subject(), m.Date())
			}
			return w.Flush()
		})
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <n>",
	Short: "Print a whole message",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := messageNumber(args[0])
		if err != nil {
			return err
		}
		return withSession(func(s *pop3.Session) error {
			m, err := s.Retrieve(n)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.dump {
				spew.Fdump(out, m.Text())
				return nil
			}
			fmt.Fprint(out, m.String())
			if to, err := m.AddressList("To"); err == nil {
				for _, a := range to {
					fmt.Fprintf(out, "To: %s\n", a.Address)
				}
			}
			fmt.Fprintf(out, "\n%s\n", m.Body())
			return nil
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <n>",
	Short: "Delete a message",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := messageNumber(args[0])
		if err != nil {
			return err
		}
		return withSession(func(s *pop3.Session) error {
			if err := s.Delete(n); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "message %d deleted\n", n)
			return nil
		})
	},
}

func printTable(out io.Writer, rows int, value func(i int) string) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for i := 0; i < rows; i++ {
		fmt.Fprintf(w, "%d\t%s\n", i+1, value(i))
	}
	return w.Flush()
}
