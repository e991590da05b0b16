package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestPrinter_JSON_Success(t *testing.T) {
	var buf bytes.Buffer
	printer := NewPrinter(&buf, true, false) // json=true, tty=false

	data := map[string]any{
		"context": "migration",
		"id":      float64(7),
	}

	err := printer.Success(data)
	if err != nil {
		t.Fatalf("Success() error = %v", err)
	}

	var result map[string]any
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("Failed to parse JSON: %v\nOutput: %s", err, buf.String())
	}

	if result["context"] != "migration" {
		t.Errorf("context = %v, want %q", result["context"], "migration")
	}
	if result["id"] != float64(7) {
		t.Errorf("id = %v, want 7", result["id"])
	}
}

func TestPrinter_JSON_Error(t *testing.T) {
	var buf bytes.Buffer
	printer := NewPrinter(&buf, true, false) // json=true, tty=false

	exitErr := NewUserError("content cannot be empty")
	printer.Error(exitErr)

	var result map[string]any
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("Failed to parse JSON: %v\nOutput: %s", err, buf.String())
	}

	if result["error"] != "content cannot be empty" {
		t.Errorf("error = %v, want %q", result["error"], "content cannot be empty")
	}
	if code, ok := result["code"].(float64); !ok || int(code) != ExitUserError {
		t.Errorf("code = %v, want %d", result["code"], ExitUserError)
	}
}

func TestPrinter_Human_Success(t *testing.T) {
	var buf bytes.Buffer
	printer := NewPrinter(&buf, false, false) // json=false, tty=false (no colors)

	data := map[string]any{
		"message": "Added history entry to migration",
	}

	err := printer.Success(data)
	if err != nil {
		t.Fatalf("Success() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "Added history entry to migration") {
		t.Errorf("output = %q, want the success message", output)
	}
}

func TestPrinter_Human_Error(t *testing.T) {
	var buf bytes.Buffer
	printer := NewPrinter(&buf, false, false) // json=false, tty=false

	exitErr := NewUserError("content cannot be empty")
	printer.Error(exitErr)

	output := buf.String()
	if !strings.Contains(output, "Error") {
		t.Errorf("output should contain 'Error': %q", output)
	}
	if !strings.Contains(output, "content cannot be empty") {
		t.Errorf("output should contain error message: %q", output)
	}
}

func TestPrinter_WithStderr_ErrorRouting(t *testing.T) {
	var out, errOut bytes.Buffer
	printer := NewPrinter(&out, false, false).WithStderr(&errOut)

	printer.Error(NewUserError("context not found: sideproject"))

	if out.Len() != 0 {
		t.Errorf("stdout = %q, want empty", out.String())
	}
	if !strings.Contains(errOut.String(), "context not found: sideproject") {
		t.Errorf("stderr = %q, want the error message", errOut.String())
	}
}

func TestPrinter_Print(t *testing.T) {
	var buf bytes.Buffer
	printer := NewPrinter(&buf, false, false)

	printer.Print("No entries found in context %s.\n", "migration")

	if buf.String() != "No entries found in context migration.\n" {
		t.Errorf("output = %q, want the formatted message", buf.String())
	}
}

func TestPrinter_Println(t *testing.T) {
	var buf bytes.Buffer
	printer := NewPrinter(&buf, false, false)

	printer.Println("Hello")

	if buf.String() != "Hello\n" {
		t.Errorf("output = %q, want %q", buf.String(), "Hello\n")
	}
}

func TestPrinter_Stderr_SeparateWriter(t *testing.T) {
	var out, errOut bytes.Buffer
	printer := NewPrinter(&out, false, false).WithStderr(&errOut)

	printer.Stderr("Watching context %s. Press Ctrl-C to stop.\n", "migration")

	if out.Len() != 0 {
		t.Errorf("stdout = %q, want empty", out.String())
	}
	if errOut.String() != "Watching context migration. Press Ctrl-C to stop.\n" {
		t.Errorf("stderr = %q, want the hint", errOut.String())
	}
}

func TestPrinter_Stderr_JSONSilent(t *testing.T) {
	var out, errOut bytes.Buffer
	printer := NewPrinter(&out, true, false).WithStderr(&errOut)

	printer.Stderr("Watching context migration\n")

	if out.Len() != 0 || errOut.Len() != 0 {
		t.Errorf("Stderr in JSON mode wrote output: stdout=%q stderr=%q", out.String(), errOut.String())
	}
}

func TestIsTTY(t *testing.T) {
	// IsTTY on a buffer should return false
	var buf bytes.Buffer
	if IsTTY(&buf) {
		t.Error("IsTTY(buffer) should return false")
	}
}

func TestPrinter_IsJSON(t *testing.T) {
	var buf bytes.Buffer

	jsonPrinter := NewPrinter(&buf, true, false)
	if !jsonPrinter.IsJSON() {
		t.Error("IsJSON() should return true for JSON printer")
	}

	humanPrinter := NewPrinter(&buf, false, false)
	if humanPrinter.IsJSON() {
		t.Error("IsJSON() should return false for human printer")
	}
}

func TestPrinter_Warn_Human(t *testing.T) {
	var out, errOut bytes.Buffer
	printer := NewPrinter(&out, false, false).WithStderr(&errOut)

	printer.Warn("context %s is already active", "migration")

	output := errOut.String()
	if !strings.Contains(output, "Warning") {
		t.Errorf("stderr should contain 'Warning': %q", output)
	}
	if !strings.Contains(output, "already active") {
		t.Errorf("stderr should contain message: %q", output)
	}
	if out.Len() != 0 {
		t.Errorf("stdout = %q, want empty", out.String())
	}
}

func TestPrinter_Warn_JSON(t *testing.T) {
	var buf bytes.Buffer
	printer := NewPrinter(&buf, true, false)

	printer.Warn("journal is empty")

	var result map[string]any
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("Failed to parse JSON: %v\nOutput: %s", err, buf.String())
	}
	if result["warning"] != "journal is empty" {
		t.Errorf("warning = %v, want %q", result["warning"], "journal is empty")
	}
}

func TestPrinter_Box_NonTTY(t *testing.T) {
	var buf bytes.Buffer
	printer := NewPrinter(&buf, false, false)

	printer.Box("Entry 3", "Deployed the login fix")

	output := buf.String()
	if !strings.Contains(output, "Entry 3") {
		t.Errorf("output should contain the title: %q", output)
	}
	if !strings.Contains(output, "Deployed the login fix") {
		t.Errorf("output should contain the content: %q", output)
	}
	if containsANSI(output) {
		t.Errorf("non-TTY box should be plain text, got: %q", output)
	}
}

func TestPrinter_Box_NoTitle(t *testing.T) {
	var buf bytes.Buffer
	printer := NewPrinter(&buf, false, false)

	printer.Box("", "Deployed the login fix")

	if buf.String() != "Deployed the login fix\n" {
		t.Errorf("output = %q, want plain content only", buf.String())
	}
}

func TestErrorJSON_Format(t *testing.T) {
	// Verify ErrorJSON produces the exact wire format
	result := ErrorJSON("no active context", ExitUserError)

	var parsed struct {
		Error string `json:"error"`
		Code  int    `json:"code"`
	}
	if err := json.Unmarshal(result, &parsed); err != nil {
		t.Fatalf("Failed to parse ErrorJSON output: %v", err)
	}

	if parsed.Error != "no active context" {
		t.Errorf("error = %q, want %q", parsed.Error, "no active context")
	}
	if parsed.Code != ExitUserError {
		t.Errorf("code = %d, want %d", parsed.Code, ExitUserError)
	}
}
