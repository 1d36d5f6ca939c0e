package procio_test

import (
	"context"
	"testing"

	"github.com/dmora/procio"
	"github.com/dmora/procio/proctest"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTextHandler struct {
	mock.Mock
}

func (m *mockTextHandler) OnInitialized(h procio.TextHandle)            { m.Called(h) }
func (m *mockTextHandler) OnStdLine(h procio.TextHandle, line string)   { m.Called(h, line) }
func (m *mockTextHandler) OnErrorLine(h procio.TextHandle, line string) { m.Called(h, line) }
func (m *mockTextHandler) OnProcessExited(exitCode int)                 { m.Called(exitCode) }
func (m *mockTextHandler) OnIOError(err error)                          { m.Called(err) }

func TestStart_HandlerCallSequence(t *testing.T) {
	m := &mockTextHandler{}
	m.On("OnInitialized", mock.Anything).Once()
	m.On("OnStdLine", mock.Anything, "out").Once()
	m.On("OnErrorLine", mock.Anything, "err").Once()
	m.On("OnProcessExited", 0).Once()

	e, err := procio.Start(context.Background(), proctest.Echo(t, "both"), m)
	require.NoError(t, err)
	require.NoError(t, proctest.WaitDone(t, e))

	m.AssertExpectations(t)
	m.AssertNotCalled(t, "OnIOError", mock.Anything)
}

func TestStart_ExitCodeDeliveredOnce(t *testing.T) {
	m := &mockTextHandler{}
	m.On("OnInitialized", mock.Anything).Once()
	m.On("OnProcessExited", 5).Once()

	e, err := procio.Start(context.Background(), proctest.Echo(t, "exit", "5"), m)
	require.NoError(t, err)
	require.NoError(t, proctest.WaitDone(t, e))

	m.AssertExpectations(t)
	m.AssertNumberOfCalls(t, "OnProcessExited", 1)
}
