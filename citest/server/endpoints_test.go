package server_test

import (
	"bufio"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type toolResponse struct {
	Title    string         `json:"title"`
	Output   string         `json:"output"`
	Metadata map[string]any `json:"metadata"`
}

type pendingApproval struct {
	RequestID string `json:"requestID"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// waitForPending polls the approval list until exactly one request is
// pending and returns its id.
func waitForPending() string {
	var id string
	Eventually(func() int {
		var pending []pendingApproval
		Expect(get("/approval", &pending)).To(Equal(http.StatusOK))
		if len(pending) > 0 {
			id = pending[0].RequestID
		}
		return len(pending)
	}, "3s", "20ms").Should(Equal(1))
	return id
}

var _ = Describe("Health", func() {
	It("reports ok", func() {
		var body map[string]string
		Expect(get("/health", &body)).To(Equal(http.StatusOK))
		Expect(body["status"]).To(Equal("ok"))
	})
})

var _ = Describe("Tool listing", func() {
	It("lists the registered tools", func() {
		var defs []struct {
			ID string `json:"id"`
		}
		Expect(get("/tool", &defs)).To(Equal(http.StatusOK))

		ids := make([]string, 0, len(defs))
		for _, d := range defs {
			ids = append(ids, d.ID)
		}
		Expect(ids).To(ConsistOf("read", "write", "edit", "list", "bash", "bash_output"))
	})
})

var _ = Describe("Read and edit flow", func() {
	It("reads a file, edits it after the read, and rejects stale edits", func() {
		path := filepath.Join(workDir, "flow.txt")
		Expect(os.WriteFile(path, []byte("alpha beta\n"), 0o644)).To(Succeed())

		// Editing before any read is refused.
		var errResp errorResponse
		status := post("/tool/edit", map[string]any{
			"filePath":  path,
			"oldString": "alpha",
			"newString": "gamma",
		}, &errResp)
		Expect(status).To(Equal(http.StatusForbidden))
		Expect(errResp.Error.Code).To(Equal("PERMISSION_DENIED"))

		var readResp toolResponse
		status = post("/tool/read", map[string]any{"filePath": path}, &readResp)
		Expect(status).To(Equal(http.StatusOK))
		Expect(readResp.Output).To(ContainSubstring("alpha beta"))

		var editResp toolResponse
		status = post("/tool/edit", map[string]any{
			"filePath":  path,
			"oldString": "alpha",
			"newString": "gamma",
		}, &editResp)
		Expect(status).To(Equal(http.StatusOK))

		content, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(content)).To(Equal("gamma beta\n"))
	})

	It("returns 404 for a missing file", func() {
		var errResp errorResponse
		status := post("/tool/read", map[string]any{
			"filePath": filepath.Join(workDir, "no-such-file"),
		}, &errResp)
		Expect(status).To(Equal(http.StatusNotFound))
		Expect(errResp.Error.Code).To(Equal("NOT_FOUND"))
	})
})

var _ = Describe("Write approval flow", func() {
	It("denies a write when the approval is rejected", func() {
		// Deliberately outside workDir so no other spec's allow-list
		// decision can short-circuit the prompt.
		path := "/opt/warden-citest-deny/denied.txt"

		statusCh := make(chan int, 1)
		go func() {
			defer GinkgoRecover()
			var errResp errorResponse
			statusCh <- post("/tool/write", map[string]any{
				"filePath": path,
				"content":  "should not land\n",
			}, &errResp)
		}()

		id := waitForPending()
		Expect(post("/approval/"+id, map[string]string{"decision": "deny"}, nil)).
			To(Equal(http.StatusOK))

		Eventually(statusCh, "3s").Should(Receive(Equal(http.StatusForbidden)))
		_, err := os.Stat(path)
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	It("persists the directory on allow_and_save and skips later prompts", func() {
		path := filepath.Join(workDir, "saved.txt")

		statusCh := make(chan int, 1)
		go func() {
			defer GinkgoRecover()
			statusCh <- post("/tool/write", map[string]any{
				"filePath": path,
				"content":  "first\n",
			}, nil)
		}()

		id := waitForPending()
		Expect(post("/approval/"+id, map[string]string{"decision": "allow_and_save"}, nil)).
			To(Equal(http.StatusOK))
		Eventually(statusCh, "3s").Should(Receive(Equal(http.StatusOK)))

		// The parent directory is on the allow-list now, so a second
		// write completes without suspending.
		status := post("/tool/write", map[string]any{
			"filePath": filepath.Join(workDir, "saved2.txt"),
			"content":  "second\n",
		}, nil)
		Expect(status).To(Equal(http.StatusOK))

		var pending []pendingApproval
		Expect(get("/approval", &pending)).To(Equal(http.StatusOK))
		Expect(pending).To(BeEmpty())
	})

	It("rejects an unknown approval id", func() {
		var errResp errorResponse
		status := post("/approval/no-such-request", map[string]string{"decision": "allow"}, &errResp)
		Expect(status).To(Equal(http.StatusNotFound))
		Expect(errResp.Error.Code).To(Equal("NOT_FOUND"))
	})

	It("rejects an invalid decision without consuming the request", func() {
		statusCh := make(chan int, 1)
		go func() {
			defer GinkgoRecover()
			var errResp errorResponse
			statusCh <- post("/tool/write", map[string]any{
				"filePath": "/opt/warden-citest/out.txt",
				"content":  "x",
			}, &errResp)
		}()

		id := waitForPending()
		status := post("/approval/"+id, map[string]string{"decision": "maybe"}, nil)
		Expect(status).To(Equal(http.StatusBadRequest))

		// Still pending after the invalid decision.
		var pending []pendingApproval
		Expect(get("/approval", &pending)).To(Equal(http.StatusOK))
		Expect(pending).To(HaveLen(1))

		Expect(post("/approval/"+id, map[string]string{"decision": "deny"}, nil)).
			To(Equal(http.StatusOK))
		Eventually(statusCh, "3s").Should(Receive(Equal(http.StatusForbidden)))
	})
})

var _ = Describe("Background processes", func() {
	It("spawns a process and drains its output incrementally", func() {
		var spawnResp toolResponse
		status := post("/tool/bash", map[string]any{
			"command":    "echo begin; sleep 0.2; echo end",
			"background": true,
		}, &spawnResp)
		Expect(status).To(Equal(http.StatusOK))

		processID, ok := spawnResp.Metadata["processID"].(string)
		Expect(ok).To(BeTrue())
		Expect(processID).NotTo(BeEmpty())

		var collected strings.Builder
		Eventually(func() string {
			var pollResp toolResponse
			Expect(post("/tool/bash_output", map[string]any{
				"process_id": processID,
			}, &pollResp)).To(Equal(http.StatusOK))
			collected.WriteString(pollResp.Output)
			s, _ := pollResp.Metadata["status"].(string)
			return s
		}, "5s", "50ms").Should(Equal("completed"))

		Expect(collected.String()).To(ContainSubstring("begin"))
		Expect(collected.String()).To(ContainSubstring("end"))

		var procs []map[string]any
		Expect(get("/process", &procs)).To(Equal(http.StatusOK))
		Expect(procs).NotTo(BeEmpty())
	})

	It("returns 404 when polling an unknown process", func() {
		var errResp errorResponse
		status := post("/tool/bash_output", map[string]any{
			"process_id": "01J00000000000000000000000",
		}, &errResp)
		Expect(status).To(Equal(http.StatusNotFound))
		Expect(errResp.Error.Code).To(Equal("NOT_FOUND"))
	})
})

var _ = Describe("Event stream", func() {
	It("announces the connection and relays approval requests", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, testServer.URL+"/event", nil)
		Expect(err).NotTo(HaveOccurred())
		resp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.Header.Get("Content-Type")).To(ContainSubstring("text/event-stream"))

		lines := make(chan string, 64)
		go func() {
			defer GinkgoRecover()
			scanner := bufio.NewScanner(resp.Body)
			for scanner.Scan() {
				lines <- scanner.Text()
			}
			close(lines)
		}()

		readDataLine := func() string {
			for {
				select {
				case line, ok := <-lines:
					if !ok {
						Fail("event stream closed early")
					}
					if strings.HasPrefix(line, "data: ") {
						return strings.TrimPrefix(line, "data: ")
					}
				case <-ctx.Done():
					Fail("timed out waiting for event")
				}
			}
		}

		Expect(readDataLine()).To(ContainSubstring("server.connected"))

		// A gated write publishes approval.requested to the stream.
		statusCh := make(chan int, 1)
		go func() {
			defer GinkgoRecover()
			statusCh <- post("/tool/write", map[string]any{
				"filePath": "/opt/warden-citest/streamed.txt",
				"content":  "x",
			}, nil)
		}()

		Eventually(func() string { return readDataLine() }, "5s").
			Should(ContainSubstring("approval.requested"))

		id := waitForPending()
		Expect(post("/approval/"+id, map[string]string{"decision": "deny"}, nil)).
			To(Equal(http.StatusOK))
		Eventually(statusCh, "3s").Should(Receive(Equal(http.StatusForbidden)))
	})
})
