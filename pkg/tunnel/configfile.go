package tunnel

import (
	"context"
	"os"
)

// configFile is the interface configuration on disk.
type configFile interface {
	backup(ctx context.Context) error
	append(ctx context.Context, block string) error
	restore(ctx context.Context) error
}

// directFile edits the file with the server's own permissions.
type directFile struct {
	path string
	bak  string
}

func (f *directFile) backup(context.Context) error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return err
	}
	info, err := os.Stat(f.path)
	if err != nil {
		return err
	}
	return os.WriteFile(f.bak, data, info.Mode().Perm())
}

func (f *directFile) append(_ context.Context, block string) error {
	fh, err := os.OpenFile(f.path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	if _, err := fh.WriteString(block); err != nil {
		_ = fh.Close()
		return err
	}
	return fh.Close()
}

func (f *directFile) restore(context.Context) error {
	data, err := os.ReadFile(f.bak)
	if err != nil {
		return err
	}
	info, err := os.Stat(f.bak)
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, data, info.Mode().Perm())
}

// commandFile edits a root-owned file through the runner with cp and tee,
// so it works when the runner escalates with sudo.
type commandFile struct {
	runner Runner
	path   string
	bak    string
}

func (f *commandFile) backup(ctx context.Context) error {
	_, err := f.runner.Run(ctx, "", "cp", "-p", f.path, f.bak)
	return err
}

func (f *commandFile) append(ctx context.Context, block string) error {
	_, err := f.runner.Run(ctx, block, "tee", "-a", f.path)
	return err
}

func (f *commandFile) restore(ctx context.Context) error {
	_, err := f.runner.Run(ctx, "", "cp", "-p", f.bak, f.path)
	return err
}
