package core

import (
	"bytes"
	"errors"
	"testing"

	"github.com/oclaw/polybuild/types"
	"github.com/stretchr/testify/require"
)

func TestReport_Order(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		res  types.InvocationResult
		want string
	}{
		{
			name: "success",
			res:  types.InvocationResult{Stdout: []byte("Hello, world!\n")},
			want: "Hello, world!\nDone!\n",
		},
		{
			name: "failed build",
			res: types.InvocationResult{
				ExitCode: 101,
				Stdout:   []byte("partial"),
				Stderr:   []byte("error[E0425]\n"),
				Err:      errors.New("exit status 101"),
			},
			want: "error[E0425]\nerror: exit status 101\npartial\nDone!\n",
		},
		{
			name: "launch error",
			res:  types.InvocationResult{ExitCode: -1, Err: errors.New(`exec: "cargo": executable file not found in $PATH`)},
			want: "error: exec: \"cargo\": executable file not found in $PATH\nDone!\n",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer
			require.NoError(t, Report(&out, &tc.res))
			require.Equal(t, tc.want, out.String())
		})
	}
}
