package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shaiso/Courier/internal/broker"
	"github.com/shaiso/Courier/internal/domain"
	"github.com/shaiso/Courier/internal/listener"
	"github.com/shaiso/Courier/internal/mq"
)

// Publisher публикует сообщения в очередь (mq.Publisher).
type Publisher interface {
	Publish(ctx context.Context, queue string, msg mq.Message) (string, error)
}

// Broker — прямой доступ к брокеру для команд queue и publish.
type Broker struct {
	Admin     broker.Admin
	Publisher Publisher

	// Close освобождает соединение; может быть nil.
	Close func() error
}

func (b *Broker) close() {
	if b.Close != nil {
		_ = b.Close()
	}
}

// ErrMismatchedQueues — queue check нашёл несоответствия.
var ErrMismatchedQueues = errors.New("mismatched queues")

var queueHeaders = []string{"NAME", "DURABLE", "EXCLUSIVE", "AUTO_DELETE"}

func queueRow(q domain.QueueSpec) []string {
	return []string{
		q.Name,
		strconv.FormatBool(q.Durable),
		strconv.FormatBool(q.Exclusive),
		strconv.FormatBool(q.AutoDelete),
	}
}

// NewQueueCmd создаёт группу команд для работы с очередями.
//
// Очередь задаётся как name[:flag,flag], флаги: durable, exclusive, auto_delete.
// Имя без флагов означает durable очередь.
func NewQueueCmd(brokerFn func() (*Broker, error), outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Declare, delete, describe and check queues",
	}

	cmd.AddCommand(
		newQueueDeclareCmd(brokerFn, outputFn),
		newQueueDeleteCmd(brokerFn, outputFn),
		newQueueDescribeCmd(brokerFn, outputFn),
		newQueueCheckCmd(brokerFn, outputFn),
	)

	return cmd
}

func newQueueDeclareCmd(brokerFn func() (*Broker, error), outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "declare SPEC...",
		Short: "Declare queues (fails if a queue exists with other properties)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			specs, err := parseSpecs(args)
			if err != nil {
				return err
			}

			b, err := brokerFn()
			if err != nil {
				return err
			}
			defer b.close()
			out := outputFn()

			for _, spec := range specs {
				if err := b.Admin.DeclareQueue(cmd.Context(), spec); err != nil {
					return err
				}
				out.Success("Queue declared: " + spec.String())
			}
			return nil
		},
	}
}

func newQueueDeleteCmd(brokerFn func() (*Broker, error), outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME...",
		Short: "Delete queues (consumers are cancelled)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := brokerFn()
			if err != nil {
				return err
			}
			defer b.close()
			out := outputFn()

			for _, name := range args {
				if err := b.Admin.DeleteQueue(cmd.Context(), name); err != nil {
					return err
				}
				out.Success("Queue deleted: " + name)
			}
			return nil
		},
	}
}

func newQueueDescribeCmd(brokerFn func() (*Broker, error), outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "describe NAME",
		Short: "Show queue properties",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := brokerFn()
			if err != nil {
				return err
			}
			defer b.close()
			out := outputFn()

			spec, err := b.Admin.DescribeQueue(cmd.Context(), args[0])
			if errors.Is(err, broker.ErrDescribeUnsupported) {
				return fmt.Errorf("%w (set --management-url to read queue properties)", err)
			}
			if err != nil {
				return err
			}
			if spec == nil {
				return fmt.Errorf("queue %s: %w", args[0], broker.ErrQueueNotFound)
			}

			out.Print(queueHeaders, [][]string{queueRow(*spec)}, spec)
			return nil
		},
	}
}

func newQueueCheckCmd(brokerFn func() (*Broker, error), outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "check SPEC...",
		Short: "Compare expected queues with the broker",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			specs, err := parseSpecs(args)
			if err != nil {
				return err
			}

			b, err := brokerFn()
			if err != nil {
				return err
			}
			defer b.close()
			out := outputFn()

			reports, err := listener.NewDetector(b.Admin, true).DetectAll(cmd.Context(), specs)
			if errors.Is(err, broker.ErrDescribeUnsupported) {
				return fmt.Errorf("%w (set --management-url to read queue properties)", err)
			}
			if err != nil {
				return err
			}

			headers := []string{"QUEUE", "EXPECTED", "OBSERVED", "STATUS"}
			rows := make([][]string, len(reports))
			for i, r := range reports {
				observed, status := "-", "ok"
				if r.Observed != nil {
					observed = r.Observed.Flags()
				}
				switch {
				case r.Absent():
					status = "absent"
				case r.Mismatch:
					status = "mismatch"
				}
				rows[i] = []string{r.Queue, r.Expected.Flags(), observed, status}
			}
			out.Print(headers, rows, reports)

			if n := len(listener.Mismatched(reports)); n > 0 {
				return fmt.Errorf("%w: %d of %d", ErrMismatchedQueues, n, len(reports))
			}
			return nil
		},
	}
}

// NewPublishCmd создаёт команду publish.
func NewPublishCmd(brokerFn func() (*Broker, error), outputFn func() *Output) *cobra.Command {
	var (
		body        string
		file        string
		contentType string
		count       int
	)

	cmd := &cobra.Command{
		Use:   "publish QUEUE",
		Short: "Publish a message to a queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := []byte(body)
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("read file: %w", err)
				}
				payload = data
			}

			b, err := brokerFn()
			if err != nil {
				return err
			}
			defer b.close()
			out := outputFn()

			for i := 0; i < count; i++ {
				id, err := b.Publisher.Publish(cmd.Context(), args[0], mq.Message{
					ContentType: contentType,
					Body:        payload,
				})
				if err != nil {
					return err
				}
				out.Success("Published: " + id)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&body, "body", "{}", "Message body")
	cmd.Flags().StringVar(&file, "file", "", "Read message body from file")
	cmd.Flags().StringVar(&contentType, "content-type", "application/json", "Content type")
	cmd.Flags().IntVar(&count, "count", 1, "Number of copies to publish")
	cmd.MarkFlagsMutuallyExclusive("body", "file")

	return cmd
}

func parseSpecs(args []string) ([]domain.QueueSpec, error) {
	specs := make([]domain.QueueSpec, 0, len(args))
	for _, arg := range args {
		spec, err := domain.ParseQueueSpec(arg)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}
