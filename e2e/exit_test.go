//go:build e2e && unix

package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestApplicationExit(t *testing.T) {
	t.Parallel()
	tf := NewTUITest(t)
	defer tf.Cleanup()

	_, err := tf.CreateTestWorkspace()
	require.NoError(t, err, "Failed to create test workspace")

	path, err := tf.CreateTestDocument("exit-test.txt", 30)
	require.NoError(t, err, "Failed to create test document")

	err = tf.StartApp(path)
	require.NoError(t, err, "Failed to start app")

	// Wait for TUI to initialize and render the document
	require.True(t, tf.SeePlain("exit-test.txt"), "Should show document name")

	// Set up exit monitoring before sending 'q'
	done := make(chan error, 1)
	go func() {
		done <- tf.cmd.Wait()
	}()

	// Send 'q' to quit
	t.Logf("Sending 'q' to quit application...")
	tf.Quit()

	// Wait for graceful shutdown
	select {
	case exitErr := <-done:
		t.Logf("Process exited with 'q' command (exit err: %v)", exitErr)
		return
	case <-time.After(1500 * time.Millisecond):
		// If 'q' didn't work within 1.5 seconds, use Ctrl+C
		t.Logf("'q' didn't work within 1.5 seconds, using Ctrl+C")
		tf.SendCtrlC()
	}

	// Wait for Ctrl+C to work
	select {
	case exitErr := <-done:
		t.Logf("Process exited with Ctrl+C (exit err: %v)", exitErr)
	case <-time.After(750 * time.Millisecond):
		t.Error("Application did not exit within total timeout")
		tf.DumpTailOnFail(t, "exit-failure", 4096) // Debug output
		tf.SendCtrlC()                             // Force exit again
	}
}

func TestApplicationRequiresArguments(t *testing.T) {
	t.Parallel()
	tf := NewTUITest(t)
	defer tf.Cleanup()

	_, err := tf.CreateTestWorkspace()
	require.NoError(t, err, "Failed to create test workspace")

	err = tf.StartApp()
	require.NoError(t, err, "Failed to start app")

	// With no files and no scan directory the app prints usage and exits
	require.True(t, tf.SeePlain("usage: folio"), "Should print usage")

	done := make(chan error, 1)
	go func() {
		done <- tf.cmd.Wait()
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("app did not exit after printing usage")
	}
}
