package procio

// TextFuncs adapts plain functions into a TextHandler. Nil fields are
// no-ops.
type TextFuncs struct {
	Initialized func(h TextHandle)
	StdLine     func(h TextHandle, line string)
	ErrorLine   func(h TextHandle, line string)
	Exited      func(exitCode int)
	IOError     func(err error)
}

var _ TextHandler = (*TextFuncs)(nil)

func (f *TextFuncs) OnInitialized(h TextHandle) {
	if f.Initialized != nil {
		f.Initialized(h)
	}
}

func (f *TextFuncs) OnStdLine(h TextHandle, line string) {
	if f.StdLine != nil {
		f.StdLine(h, line)
	}
}

func (f *TextFuncs) OnErrorLine(h TextHandle, line string) {
	if f.ErrorLine != nil {
		f.ErrorLine(h, line)
	}
}

func (f *TextFuncs) OnProcessExited(exitCode int) {
	if f.Exited != nil {
		f.Exited(exitCode)
	}
}

func (f *TextFuncs) OnIOError(err error) {
	if f.IOError != nil {
		f.IOError(err)
	}
}

// BinaryFuncs adapts plain functions into a BinaryHandler. Nil fields are
// no-ops. Size, when positive, is reported through BufferSize.
type BinaryFuncs struct {
	Size        int
	Initialized func(h BinaryHandle)
	StdBytes    func(h BinaryHandle, n int, buf []byte)
	ErrorBytes  func(h BinaryHandle, n int, buf []byte)
	Exited      func(exitCode int)
	IOError     func(err error)
}

var (
	_ BinaryHandler = (*BinaryFuncs)(nil)
	_ BufferSizer   = (*BinaryFuncs)(nil)
)

func (f *BinaryFuncs) BufferSize() int { return f.Size }

func (f *BinaryFuncs) OnInitialized(h BinaryHandle) {
	if f.Initialized != nil {
		f.Initialized(h)
	}
}

func (f *BinaryFuncs) OnStdBytes(h BinaryHandle, n int, buf []byte) {
	if f.StdBytes != nil {
		f.StdBytes(h, n, buf)
	}
}

func (f *BinaryFuncs) OnErrorBytes(h BinaryHandle, n int, buf []byte) {
	if f.ErrorBytes != nil {
		f.ErrorBytes(h, n, buf)
	}
}

func (f *BinaryFuncs) OnProcessExited(exitCode int) {
	if f.Exited != nil {
		f.Exited(exitCode)
	}
}

func (f *BinaryFuncs) OnIOError(err error) {
	if f.IOError != nil {
		f.IOError(err)
	}
}
