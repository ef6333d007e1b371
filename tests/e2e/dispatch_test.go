package e2e_test

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jmbish04/lightbulb-aquarium/internal/gateway"
	"github.com/jmbish04/lightbulb-aquarium/internal/sessionmux"
	"github.com/jmbish04/lightbulb-aquarium/internal/store"
)

// dial opens one gateway connection for a spec.
func dial() (net.Conn, *bufio.Scanner) {
	conn, err := net.Dial("tcp", gatewayAddr)
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(func() { conn.Close() })
	return conn, bufio.NewScanner(conn)
}

func send(conn net.Conn, envelope string) {
	_, err := fmt.Fprintln(conn, envelope)
	Expect(err).NotTo(HaveOccurred())
}

func recv(conn net.Conn, sc *bufio.Scanner) gateway.Event {
	Expect(conn.SetReadDeadline(time.Now().Add(5 * time.Second))).To(Succeed())
	Expect(sc.Scan()).To(BeTrue(), "expected an event, stream ended: %v", sc.Err())
	var ev gateway.Event
	Expect(json.Unmarshal(sc.Bytes(), &ev)).To(Succeed())
	return ev
}

// recvTerminal drains status events and returns the first terminal one.
func recvTerminal(conn net.Conn, sc *bufio.Scanner) gateway.Event {
	for {
		ev := recv(conn, sc)
		if ev.Type != gateway.EventStatus {
			return ev
		}
	}
}

var _ = Describe("Gateway dispatch", func() {
	It("runs the fork/plan workflow end to end", func() {
		conn, sc := dial()

		send(conn, `{"specialist":"source-control","tool":"forkAndPlan","params":{"repoUrl":"https://github.com/acme/widgets","taskDescription":"add dark mode"}}`)
		ev := recvTerminal(conn, sc)
		Expect(ev.Type).To(Equal(gateway.EventResult))

		result := ev.Result.(map[string]any)
		Expect(result["newRepoUrl"]).To(Equal("https://github.com/forkbot/widgets"))
		Expect(result["workflowRunId"]).NotTo(BeEmpty())

		plan := result["plan"].(map[string]any)
		Expect(plan["summary"]).To(Equal("canned summary"))

		// The project is durable and readable through the same surface.
		send(conn, fmt.Sprintf(`{"specialist":"source-control","tool":"getProject","params":{"projectId":%q}}`, result["workflowRunId"]))
		ev = recvTerminal(conn, sc)
		Expect(ev.Type).To(Equal(gateway.EventResult))

		lookup := ev.Result.(map[string]any)
		project := lookup["project"].(map[string]any)
		Expect(project["status"]).To(Equal(store.ProjectPlanned))
	})

	It("runs the research-brief workflow and persists reviews", func() {
		conn, sc := dial()

		send(conn, `{"specialist":"research","tool":"researchBrief","params":{"topic":"theming libraries","seeds":["https://github.com/acme/themes"]}}`)
		ev := recvTerminal(conn, sc)
		Expect(ev.Type).To(Equal(gateway.EventResult))

		result := ev.Result.(map[string]any)
		briefID := result["briefId"].(string)
		Expect(briefID).NotTo(BeEmpty())

		send(conn, fmt.Sprintf(`{"specialist":"research","tool":"getBrief","params":{"briefId":%q}}`, briefID))
		ev = recvTerminal(conn, sc)
		Expect(ev.Type).To(Equal(gateway.EventResult))

		lookup := ev.Result.(map[string]any)
		brief := lookup["brief"].(map[string]any)
		Expect(brief["status"]).To(Equal(store.BriefComplete))
		Expect(brief["summary"]).To(ContainSubstring("canned synthesis"))
	})

	It("answers consultations and records the fix", func() {
		conn, sc := dial()

		send(conn, `{"specialist":"consult","tool":"reportIssue","params":{"question":"jobs stuck","context":"since upgrade"}}`)
		ev := recvTerminal(conn, sc)
		Expect(ev.Type).To(Equal(gateway.EventResult))

		result := ev.Result.(map[string]any)
		Expect(result["status"]).To(Equal(store.ConsultFixed))
		Expect(result["response"]).To(Equal("canned prose answer"))
	})

	It("drafts through the fan-out-and-judge generator", func() {
		conn, sc := dial()

		send(conn, `{"specialist":"drafting","tool":"draftBest","params":{"topic":"release notes","candidates":2}}`)
		ev := recvTerminal(conn, sc)
		Expect(ev.Type).To(Equal(gateway.EventResult))

		result := ev.Result.(map[string]any)
		Expect(result["body"]).To(Equal("canned prose answer"))
	})

	It("suggests a specialist through the gateway builtin", func() {
		conn, sc := dial()

		send(conn, `{"specialist":"gateway","tool":"suggest","params":{"title":"debug a crash","description":"stack trace in the scheduler"}}`)
		ev := recvTerminal(conn, sc)
		Expect(ev.Type).To(Equal(gateway.EventResult))

		result := ev.Result.(map[string]any)
		Expect(result["specialist"]).To(Equal("consult"))
	})

	It("keeps the connection open after a failed invocation", func() {
		conn, sc := dial()

		send(conn, `{"specialist":"ghost","tool":"anything"}`)
		ev := recvTerminal(conn, sc)
		Expect(ev.Type).To(Equal(gateway.EventError))
		Expect(ev.Code).To(Equal("configuration"))

		send(conn, `{"specialist":"gateway","tool":"suggest","params":{"title":"research alternatives"}}`)
		ev = recvTerminal(conn, sc)
		Expect(ev.Type).To(Equal(gateway.EventResult))
	})
})

var _ = Describe("Session surface", func() {
	openSession := func(name, id string) (*bufio.Reader, func()) {
		req, err := http.NewRequest(http.MethodGet, sessionSrv.URL+"/specialists/"+name+"/session", nil)
		Expect(err).NotTo(HaveOccurred())
		req.Header.Set(sessionmux.SessionHeader, id)

		resp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		r := bufio.NewReader(resp.Body)
		line, err := r.ReadString('\n')
		Expect(err).NotTo(HaveOccurred())
		Expect(line).To(ContainSubstring("session open"))

		return r, func() { resp.Body.Close() }
	}

	It("streams events for submissions against a pinned instance", func() {
		r, closeStream := openSession("consult", "e2e-session")
		DeferCleanup(closeStream)

		body := strings.NewReader(`{"tool":"reportIssue","params":{"question":"pods flapping"}}`)
		req, err := http.NewRequest(http.MethodPost, sessionSrv.URL+"/specialists/consult/session", body)
		Expect(err).NotTo(HaveOccurred())
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(sessionmux.SessionHeader, "e2e-session")

		resp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		var submitResult struct {
			Type   string         `json:"type"`
			Result map[string]any `json:"result"`
		}
		Expect(json.NewDecoder(resp.Body).Decode(&submitResult)).To(Succeed())
		Expect(submitResult.Type).To(Equal(gateway.EventResult))
		Expect(submitResult.Result["status"]).To(Equal(store.ConsultFixed))

		// The same terminal event is mirrored on the stream.
		var terminal gateway.Event
		for {
			line, err := r.ReadBytes('\n')
			Expect(err).NotTo(HaveOccurred())
			Expect(json.Unmarshal(line, &terminal)).To(Succeed())
			if terminal.Type != gateway.EventStatus {
				break
			}
		}
		Expect(terminal.Type).To(Equal(gateway.EventResult))
		Expect(terminal.Tool).To(Equal("reportIssue"))
	})

	It("rejects a second open with the same id", func() {
		_, closeStream := openSession("research", "dup-session")
		DeferCleanup(closeStream)

		req, err := http.NewRequest(http.MethodGet, sessionSrv.URL+"/specialists/research/session", nil)
		Expect(err).NotTo(HaveOccurred())
		req.Header.Set(sessionmux.SessionHeader, "dup-session")

		resp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusConflict))
	})

	It("returns not-found for submissions without an open session", func() {
		body := strings.NewReader(`{"tool":"getBrief","params":{"briefId":"x"}}`)
		req, err := http.NewRequest(http.MethodPost, sessionSrv.URL+"/specialists/research/session", body)
		Expect(err).NotTo(HaveOccurred())
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(sessionmux.SessionHeader, "never-opened")

		resp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
	})
})
