package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var containerHeaders = []string{"NAME", "STATE", "RUNNING", "FATAL", "QUEUES", "CONSUMING", "ERROR"}

func containerRow(c ContainerResponse) []string {
	return []string{
		c.Name,
		c.State,
		strconv.FormatBool(c.Running),
		strconv.FormatBool(c.MismatchedQueuesFatal),
		strings.Join(c.Queues, ","),
		strings.Join(c.Consuming, ","),
		c.Error,
	}
}

// NewStatusCmd создаёт команду status: состояние контейнеров демона.
func NewStatusCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "status [NAME]",
		Short: "Show listener container status",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if len(args) == 1 {
				c, err := client.GetContainer(args[0])
				if err != nil {
					return err
				}
				out.Print(containerHeaders, [][]string{containerRow(*c)}, c)
				return nil
			}

			containers, err := client.ListContainers()
			if err != nil {
				return err
			}

			rows := make([][]string, len(containers))
			for i, c := range containers {
				rows[i] = containerRow(c)
			}
			out.Print(containerHeaders, rows, containers)
			return nil
		},
	}
}

// NewContainerCmd создаёт группу команд управления контейнерами.
func NewContainerCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "container",
		Short: "Start or stop listener containers",
	}

	cmd.AddCommand(
		newContainerStartCmd(clientFn, outputFn),
		newContainerStopCmd(clientFn, outputFn),
	)

	return cmd
}

func newContainerStartCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "start NAME",
		Short: "Start a container (also restarts after SHUTDOWN_FATAL)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			c, err := client.StartContainer(args[0])
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Container %s: %s", c.Name, c.State))
			out.Print(containerHeaders, [][]string{containerRow(*c)}, c)
			return nil
		},
	}
}

func newContainerStopCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "stop NAME",
		Short: "Stop a container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			c, err := client.StopContainer(args[0])
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Container %s: %s", c.Name, c.State))
			return nil
		},
	}
}

// NewEventsCmd создаёт команду events: журнал переходов контейнера.
func NewEventsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var opts ListEventsOpts

	cmd := &cobra.Command{
		Use:   "events NAME",
		Short: "Show container state transitions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			events, err := client.ListEvents(args[0], opts)
			if err != nil {
				return err
			}

			headers := []string{"TIME", "FROM", "TO", "REASON", "ERROR"}
			rows := make([][]string, len(events))
			for i, e := range events {
				rows[i] = []string{e.OccurredAt, e.From, e.To, e.Reason, e.Error}
			}

			out.Print(headers, rows, events)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.State, "state", "", "Filter by target state (e.g. SHUTDOWN_FATAL)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "Maximum number of events")

	return cmd
}
