package static

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"static-httpd/application/http/actor/server"
	"static-httpd/application/http/semantic"
	"static-httpd/application/http/semantic/status"
	"static-httpd/lib/types/pointer"
	"strings"
	"syscall"

	"github.com/pkg/errors"
)

var (
	ErrMethodNotAllowed = errors.New("method not allowed")
	ErrPathTraversal    = errors.New("path may escape content root")
	ErrOutsideRoot      = errors.New("resolved path is outside of content root")
	ErrNotFound         = errors.New("file not found")
	ErrForbidden        = errors.New("file is not accessible")
	ErrInvalidRoot      = errors.New("content root is not a directory")
)

type Options struct {
	// Root is the directory files are served from.
	Root string
	// Index is the document served for a directory.
	Index string
	// NotFoundPage is a file under Root sent as the body of 404 responses.
	// Empty means a builtin page.
	NotFoundPage string
	// MIMETypes maps lowercase extensions without dot into Content-Type.
	// Unknown extensions are served as application/octet-stream.
	MIMETypes map[string]string
}

func DefaultOptions() Options {
	return Options{
		Root:      "public",
		Index:     "index.html",
		MIMETypes: DefaultMIMETypes(),
	}
}

type Handler struct {
	// root is absolute, with symbolic links evaluated.
	root string
	// dir refuses any name that resolves outside of root.
	dir  *os.Root
	opts Options
}

// New creates a handler serving opts.Root.
// The root must be an existing directory.
func New(opts Options) (*Handler, error) {
	abs, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, errors.Wrap(err, "getting absolute path of root")
	}

	root, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, errors.Wrapf(err, "evaluating root %q", opts.Root)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.Wrapf(err, "stat root %q", opts.Root)
	}
	if !info.IsDir() {
		return nil, errors.Wrap(ErrInvalidRoot, opts.Root)
	}

	if opts.Index == "" {
		opts.Index = "index.html"
	}
	if strings.ContainsAny(opts.Index, `/\`) {
		return nil, errors.Errorf("index should be a file name: %q", opts.Index)
	}
	if opts.MIMETypes == nil {
		opts.MIMETypes = DefaultMIMETypes()
	}

	dir, err := os.OpenRoot(root)
	if err != nil {
		return nil, errors.Wrapf(err, "opening root %q", opts.Root)
	}

	return &Handler{root: root, dir: dir, opts: opts}, nil
}

func (h *Handler) Root() string { return h.root }

// Close releases the content root. Files already handed out stay readable.
func (h *Handler) Close() error { return h.dir.Close() }

// Handle implements [server.HandleFunc].
func (h *Handler) Handle(c *server.HandleContext, request *semantic.Request) *semantic.Response {
	if request.Method != semantic.MethodGet && request.Method != semantic.MethodHead {
		err := errors.Wrap(ErrMethodNotAllowed, string(request.Method))

		// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-15.5.6
		res := c.Error(status.NewError(err, status.MethodNotAllowed))
		res.Headers.Add("Allow", string(semantic.MethodGet))
		res.Headers.Add("Allow", string(semantic.MethodHead))
		return res
	}

	f, info, err := h.open(request.URI.Path)
	if err != nil {
		c.Logger().Info("failed to resolve file", "path", request.URI.Path, "error", err)

		if errors.Is(err, ErrNotFound) {
			return h.notFound(c)
		}
		return c.Error(toStatusError(err))
	}

	res := semantic.NewResponse(status.OK)
	res.Headers.Set("Content-Type", contentType(h.opts.MIMETypes, info.Name()))
	res.ContentLength = pointer.To(uint(info.Size()))
	res.Body = f

	return res
}

func (h *Handler) notFound(c *server.HandleContext) *semantic.Response {
	fallback := c.Error(status.NewError(ErrNotFound, status.NotFound))
	if h.opts.NotFoundPage == "" {
		return fallback
	}

	f, info, err := h.open("/" + h.opts.NotFoundPage)
	if err != nil {
		c.Logger().Warn("failed to open not found page", "page", h.opts.NotFoundPage, "error", err)
		return fallback
	}

	res := semantic.NewResponse(status.NotFound)
	res.Headers.Set("Content-Type", contentType(h.opts.MIMETypes, info.Name()))
	res.ContentLength = pointer.To(uint(info.Size()))
	res.Body = f

	return res
}

// open opens the regular file that urlPath resolves to.
// Only regular files are opened, so a FIFO or a device never blocks the caller.
func (h *Handler) open(urlPath string) (*os.File, fs.FileInfo, error) {
	name, info, err := h.resolve(urlPath)
	if err != nil {
		return nil, nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, nil, errors.Wrapf(ErrNotFound, "not a regular file: %s", urlPath)
	}

	f, err := h.dir.Open(name)
	if err != nil {
		return nil, nil, classify(err)
	}

	// The file may have been replaced since it was resolved.
	if info, err = f.Stat(); err != nil || !info.Mode().IsRegular() {
		f.Close()
		return nil, nil, errors.Wrapf(ErrNotFound, "not a regular file: %s", urlPath)
	}

	return f, info, nil
}

// resolve maps urlPath into a name relative to root, and stats it.
// A directory is replaced by its index document.
func (h *Handler) resolve(urlPath string) (string, fs.FileInfo, error) {
	if err := validatePath(urlPath); err != nil {
		return "", nil, err
	}

	name := filepath.FromSlash(strings.TrimPrefix(path.Clean(urlPath), "/"))
	if name == "" {
		name = "."
	}

	info, err := h.dir.Stat(name)
	if err != nil {
		return "", nil, classify(err)
	}

	if info.IsDir() {
		name = filepath.Join(name, h.opts.Index)
		if info, err = h.dir.Stat(name); err != nil {
			return "", nil, classify(err)
		}
	}

	return name, info, nil
}

// validatePath rejects paths that could name a location outside the root.
func validatePath(urlPath string) error {
	if !strings.HasPrefix(urlPath, "/") {
		return errors.Wrapf(ErrPathTraversal, "not an absolute path: %q", urlPath)
	}

	if strings.Contains(urlPath, "..") {
		return errors.Wrapf(ErrPathTraversal, "dot-dot in path: %q", urlPath)
	}

	// Backslash is a separator on some platforms, NUL terminates a path on most.
	if strings.ContainsAny(urlPath, "\\\x00") {
		return errors.Wrapf(ErrPathTraversal, "forbidden character in path: %q", urlPath)
	}

	return nil
}

// classify maps an error of [os.Root] into the errors of this package.
// The root reports a path leaving it, including through a symbolic link, with a
// non-errno cause, and does so before looking at anything outside.
func classify(err error) error {
	var errno syscall.Errno
	switch {
	case errors.Is(err, fs.ErrNotExist),
		errors.Is(err, syscall.ENOTDIR),
		errors.Is(err, syscall.ENAMETOOLONG):
		return errors.Wrap(ErrNotFound, err.Error())
	case errors.Is(err, fs.ErrPermission), errors.Is(err, syscall.ELOOP):
		return errors.Wrap(ErrForbidden, err.Error())
	case !errors.As(err, &errno):
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return errors.Wrap(ErrOutsideRoot, err.Error())
		}
	}
	return err
}

func toStatusError(err error) status.Error {
	switch {
	case errors.Is(err, ErrPathTraversal):
		return status.NewError(err, status.BadRequest)
	case errors.Is(err, ErrOutsideRoot), errors.Is(err, ErrForbidden):
		return status.NewError(err, status.Forbidden)
	case errors.Is(err, ErrNotFound):
		return status.NewError(err, status.NotFound)
	}
	return status.NewError(err, status.InternalServerError)
}
