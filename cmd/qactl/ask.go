package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question and print the grounded answer",
	Args:  cobra.ExactArgs(1),
	RunE:  runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().Int("top-k", 0, "number of evidence chunks to retrieve (0 = server default)")
	askCmd.Flags().String("method", "", "retrieval method: hybrid, dense or sparse")
	askCmd.Flags().Bool("stream", false, "stream the answer as it is generated")
	askCmd.Flags().Bool("json", false, "print the raw JSON response")
	askCmd.Flags().Duration("timeout", 5*time.Minute, "request timeout")
}

type askRequest struct {
	Query  string `json:"query"`
	TopK   int    `json:"top_k,omitempty"`
	Method string `json:"method,omitempty"`
}

type askResponse struct {
	AnswerID            string      `json:"answer_id"`
	Answer              string      `json:"answer"`
	Confidence          float64     `json:"confidence"`
	ActionsTaken        []string    `json:"actions_taken"`
	IterationCount      int         `json:"iteration_count"`
	IterationsExhausted bool        `json:"iterations_exhausted"`
	Sources             []askSource `json:"sources"`
	ElapsedMillis       int64       `json:"elapsed_ms"`
	Cached              bool        `json:"cached"`
}

type askSource struct {
	ChunkID     string  `json:"chunk_id"`
	SourceDocID string  `json:"source_doc_id"`
	Score       float64 `json:"score"`
	Snippet     string  `json:"snippet"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	topK, _ := cmd.Flags().GetInt("top-k")
	method, _ := cmd.Flags().GetString("method")
	stream, _ := cmd.Flags().GetBool("stream")
	rawJSON, _ := cmd.Flags().GetBool("json")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	req := askRequest{Query: args[0], TopK: topK, Method: method}

	if stream {
		return streamAnswer(ctx, req)
	}
	return printAnswer(ctx, req, rawJSON)
}

func printAnswer(ctx context.Context, req askRequest, rawJSON bool) error {
	body, resp, err := postJSON(ctx, "/v1/qa/answer", req)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	if rawJSON {
		fmt.Println(string(body))
		return nil
	}

	var answer askResponse
	if err := json.Unmarshal(body, &answer); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	fmt.Println(answer.Answer)
	fmt.Println()
	fmt.Printf("confidence: %.2f  iterations: %d  elapsed: %dms", answer.Confidence, answer.IterationCount, answer.ElapsedMillis)
	if answer.Cached {
		fmt.Print("  (cached)")
	}
	fmt.Println()

	if len(answer.Sources) > 0 {
		fmt.Println("sources:")
		for i, src := range answer.Sources {
			fmt.Printf("  [%d] %s (score %.3f)\n", i+1, src.SourceDocID, src.Score)
		}
	}
	return nil
}

func streamAnswer(ctx context.Context, req askRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(serverURL, "/")+"/v1/qa/answer/stream", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s", resp.Status)
	}

	var event string
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data := strings.TrimPrefix(line, "data: ")
			switch event {
			case "delta":
				var fragment string
				if err := json.Unmarshal([]byte(data), &fragment); err == nil {
					fmt.Print(fragment)
				}
			case "fallback", "error":
				var message string
				_ = json.Unmarshal([]byte(data), &message)
				fmt.Fprintln(os.Stderr, message)
			case "done":
				fmt.Println()
			}
		}
	}
	return scanner.Err()
}

func postJSON(ctx context.Context, path string, payload any) ([]byte, *http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(serverURL, "/")+path, bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := readAll(resp)
	if err != nil {
		return nil, nil, err
	}
	return respBody, resp, nil
}

func readAll(resp *http.Response) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
