package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/tool/utils"

	"github.com/cpap-support-agent/server/internal/devices"
)

// toolArgs carries the decoded arguments of one call. A decode failure is kept
// on the value so the tool can answer with it as an observation.
type toolArgs[T any] struct {
	In  T
	Err error
}

// decodeArgs decodes into toolArgs[T] and never fails the call itself.
func decodeArgs[T any](name string) utils.UnmarshalArguments {
	return func(_ context.Context, arguments string) (interface{}, error) {
		args := &toolArgs[T]{}
		raw := strings.TrimSpace(arguments)
		if raw == "" || raw == "null" {
			return args, nil
		}
		if err := sonic.UnmarshalString(raw, &args.In); err != nil {
			args.Err = fmt.Errorf("Invalid arguments for %s: %v", name, err)
		}
		return args, nil
	}
}

// observationText returns string results as-is instead of JSON-quoting them.
func observationText(_ context.Context, output interface{}) (string, error) {
	if s, ok := output.(string); ok {
		return s, nil
	}
	out, err := sonic.MarshalString(output)
	if err != nil {
		return "", err
	}
	return out, nil
}

// observe renders argument and lookup failures as the text the model sees.
func observe(args interface{ argsErr() error }, run func() (string, error)) (string, error) {
	if err := args.argsErr(); err != nil {
		return err.Error(), nil
	}
	out, err := run()
	var nf *devices.NotFoundError
	if errors.As(err, &nf) {
		return nf.Error(), nil
	}
	return out, err
}

func (a *toolArgs[T]) argsErr() error { return a.Err }
