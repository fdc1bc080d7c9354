package buildtooltest

import (
	"errors"
	"testing"

	"golang.org/x/sys/execabs"
)

func TestCheckManyCommands(t *testing.T) {

	type testcase struct {
		name      string
		cmd       []*execabs.Cmd
		tee       []ExecExpectations
		expectErr bool
	}

	var testcases = []testcase{{
		name: "where everything is working as intended",
		cmd: []*execabs.Cmd{{
			Path: "/usr/bin/lipo",
			Args: []string{"lipo", "-create", "a.a", "-output", "b.a"},
		}, {
			Path: "./Configure",
			Args: []string{"./Configure", "ios64-cross-arm64"},
			Dir:  "/src",
			Env: []string{
				"CROSS_SDK=iPhoneOS17.0.sdk",
			},
		}},
		tee: []ExecExpectations{{
			Env:  []string{},
			Argv: []string{"lipo", "-create", "a.a", "-output", "b.a"},
		}, {
			Dir:  "/src",
			Env:  []string{"CROSS_SDK=iPhoneOS17.0.sdk"},
			Argv: []string{"./Configure", "ios64-cross-arm64"},
		}},
		expectErr: false,
	}, {
		name: "where we didn't find the environment we expected",
		cmd: []*execabs.Cmd{{
			Path: "/usr/bin/make",
			Args: []string{"make"},
		}},
		tee: []ExecExpectations{{
			Env:  []string{"CROSS_SDK=iPhoneOS17.0.sdk"},
			Argv: []string{"make"},
		}},
		expectErr: true,
	}, {
		name: "where the directory differs",
		cmd: []*execabs.Cmd{{
			Path: "/usr/bin/make",
			Args: []string{"make"},
			Dir:  "/tmp",
		}},
		tee: []ExecExpectations{{
			Dir:  "/src",
			Argv: []string{"make"},
		}},
		expectErr: true,
	}, {
		name: "where a specific command line argument differs",
		cmd: []*execabs.Cmd{{
			Path: "/usr/bin/make",
			Args: []string{"make", "-j", "4"},
		}},
		tee: []ExecExpectations{{
			Argv: []string{"make", "-j", "8"},
		}},
		expectErr: true,
	}, {
		name: "where the argvs have different length",
		cmd: []*execabs.Cmd{{
			Path: "/usr/bin/make",
			Args: []string{"make"},
		}},
		tee: []ExecExpectations{{
			Argv: []string{"make", "install_dev"},
		}},
		expectErr: true,
	}, {
		name: "where the argv[0] suffix does not match",
		cmd: []*execabs.Cmd{{
			Path: "/usr/bin/gmake4",
			Args: []string{"gmake4"},
		}},
		tee: []ExecExpectations{{
			Argv: []string{"make"},
		}},
		expectErr: true,
	}, {
		name: "where we got more environment than expected",
		cmd: []*execabs.Cmd{{
			Path: "/usr/bin/make",
			Args: []string{"make"},
			Env:  []string{"CROSS_TOP=/Developer"},
		}},
		tee: []ExecExpectations{{
			Argv: []string{"make"},
		}},
		expectErr: true,
	}, {
		name: "with mismatch between number of commands and expectations",
		cmd:  []*execabs.Cmd{},
		tee: []ExecExpectations{{
			Argv: []string{"make"},
		}},
		expectErr: true,
	}}

	for _, c := range testcases {
		t.Run(c.name, func(t *testing.T) {
			err := CheckManyCommands(c.cmd, c.tee)
			if err != nil && !c.expectErr {
				t.Fatal("did not expect an error", err)
			}
			if err == nil && c.expectErr {
				t.Fatal("expected error but got nil")
			}
			if err != nil && !errors.Is(err, ErrCommandsMismatch) {
				t.Fatal("unexpected error", err)
			}
		})
	}
}

func TestSimpleCommandCollector(t *testing.T) {
	t.Run("LookPath", func(t *testing.T) {
		cc := &SimpleCommandCollector{}
		path, err := cc.LookPath("lipo")
		if err != nil {
			t.Fatal(err)
		}
		if path != "lipo" {
			t.Fatal("invalid path")
		}
	})

	t.Run("CmdOutput", func(t *testing.T) {
		cc := &SimpleCommandCollector{}
		cmd := &execabs.Cmd{}
		output, err := cc.CmdOutput(cmd)
		if err != nil {
			t.Fatal(err)
		}
		if len(output) != 0 {
			t.Fatal("invalid output")
		}
		if cc.Commands[0] != cmd {
			t.Fatal("did not save the command")
		}
	})

	t.Run("CmdRun with hook", func(t *testing.T) {
		expected := errors.New("mocked error")
		cc := &SimpleCommandCollector{
			OnCommand: func(c *execabs.Cmd) ([]byte, error) {
				return nil, expected
			},
		}
		cmd := &execabs.Cmd{}
		if err := cc.CmdRun(cmd); !errors.Is(err, expected) {
			t.Fatal("unexpected error", err)
		}
		if cc.Commands[0] != cmd {
			t.Fatal("did not save the command")
		}
	})
}
