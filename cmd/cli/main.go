package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	serverURL   string
	noAutoStart bool
	rootCmd     = &cobra.Command{
		Use:   "ytq",
		Short: "ytq CLI - yt-dlp download queue manager",
		Long:  `A command-line interface for queueing and managing yt-dlp downloads.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8090", "Server URL")
	rootCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Don't auto-start server if not running")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(reorderCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(formatsCmd)
	rootCmd.AddCommand(playlistCmd)
}

// ensureServer checks if server is running and starts it if needed (unless --no-auto-start)
func ensureServer() {
	if noAutoStart {
		return
	}
	if err := ensureServerRunning(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

func postJSON(path string, payload interface{}) map[string]interface{} {
	var body io.Reader
	if payload != nil {
		data, _ := json.Marshal(payload)
		body = bytes.NewBuffer(data)
	}
	resp, err := http.Post(serverURL+path, "application/json", body)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		fmt.Fprintf(os.Stderr, "Error: %s\n", string(raw))
		os.Exit(1)
	}

	var result map[string]interface{}
	json.Unmarshal(raw, &result)
	return result
}

func getJSON(path string, out interface{}) {
	resp, err := http.Get(serverURL + path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		fmt.Fprintf(os.Stderr, "Error: %s\n", string(raw))
		os.Exit(1)
	}
	json.Unmarshal(raw, out)
}

var addCmd = &cobra.Command{
	Use:   "add [url]",
	Short: "Add a download to the queue",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		videoID, _ := cmd.Flags().GetString("video")
		audioID, _ := cmd.Flags().GetString("audio")
		override, _ := cmd.Flags().GetString("format")
		title, _ := cmd.Flags().GetString("title")
		subs, _ := cmd.Flags().GetString("subs")
		allSubs, _ := cmd.Flags().GetBool("all-subs")
		autoCaptions, _ := cmd.Flags().GetBool("auto-captions")

		selection := map[string]interface{}{}
		if videoID != "" {
			selection["video_id"] = videoID
		}
		if audioID != "" {
			selection["audio_id"] = audioID
		}
		if override != "" {
			selection["override"] = override
		}

		subtitles := map[string]interface{}{}
		if subs != "" {
			subtitles["langs"] = strings.Split(subs, ",")
		}
		if allSubs {
			subtitles["all_langs"] = true
		}
		if autoCaptions {
			subtitles["auto_captions"] = true
		}

		payload := map[string]interface{}{
			"url":       args[0],
			"title":     title,
			"selection": selection,
			"subtitles": subtitles,
		}

		result := postJSON("/api/v1/jobs", payload)
		fmt.Printf("Job added successfully!\n")
		fmt.Printf("ID: %s\n", result["id"])
		fmt.Printf("Status: %s\n", result["status"])
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all jobs",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		status, _ := cmd.Flags().GetString("status")

		path := "/api/v1/jobs"
		if status != "" {
			path += "?status=" + status
		}

		var jobs []map[string]interface{}
		getJSON(path, &jobs)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tURL\tSTATUS\tPROGRESS\tCREATED")
		for _, j := range jobs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				truncate(str(j["id"]), 8),
				truncate(jobURL(j), 40),
				j["status"],
				progressOf(j),
				j["created_at"])
		}
		w.Flush()
	},
}

var getCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Get job details",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		var job map[string]interface{}
		getJSON("/api/v1/jobs/"+args[0], &job)

		fmt.Printf("Job Details:\n")
		fmt.Printf("  ID:       %s\n", job["id"])
		fmt.Printf("  URL:      %s\n", jobURL(job))
		fmt.Printf("  Status:   %s\n", job["status"])
		fmt.Printf("  Progress: %s\n", progressOf(job))
		fmt.Printf("  Created:  %s\n", job["created_at"])
		if job["error_detail"] != nil {
			fmt.Printf("  Error:    %s\n", job["error_detail"])
		}
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs [id]",
	Short: "View a job's process output",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		var result map[string]interface{}
		getJSON("/api/v1/jobs/"+args[0]+"/log", &result)
		fmt.Println(str(result["log"]))
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel [id]",
	Short: "Cancel a job",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		postJSON("/api/v1/jobs/"+args[0]+"/cancel", nil)
		fmt.Println("Job cancelled successfully")
	},
}

var reorderCmd = &cobra.Command{
	Use:   "reorder [id] [index]",
	Short: "Move a pending job to a new queue position",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		var index int
		if _, err := fmt.Sscanf(args[1], "%d", &index); err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid index %q\n", args[1])
			os.Exit(1)
		}

		postJSON("/api/v1/jobs/"+args[0]+"/reorder", map[string]int{"index": index})
		fmt.Println("Job reordered successfully")
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove [id]",
	Short: "Remove a job from the queue",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		req, _ := http.NewRequest(http.MethodDelete, serverURL+"/api/v1/jobs/"+args[0], nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		raw, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 400 {
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(raw))
			os.Exit(1)
		}
		fmt.Println("Job removed successfully")
	},
}

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause the queue after the current job",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		postJSON("/api/v1/queue/pause", nil)
		fmt.Println("Queue paused")
	},
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start or resume the queue",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		postJSON("/api/v1/queue/start", nil)
		fmt.Println("Queue started")
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show queue statistics",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		var result struct {
			Paused bool                   `json:"paused"`
			Stats  map[string]interface{} `json:"stats"`
		}
		getJSON("/api/v1/queue/stats", &result)

		fmt.Println("Queue Statistics:")
		fmt.Printf("  Paused:    %v\n", result.Paused)
		fmt.Printf("  Total:     %v\n", result.Stats["total"])
		fmt.Printf("  Pending:   %v\n", result.Stats["pending"])
		fmt.Printf("  Running:   %v\n", result.Stats["running"])
		fmt.Printf("  Succeeded: %v\n", result.Stats["succeeded"])
		fmt.Printf("  Failed:    %v\n", result.Stats["failed"])
		fmt.Printf("  Cancelled: %v\n", result.Stats["cancelled"])
	},
}

var formatsCmd = &cobra.Command{
	Use:   "formats [url]",
	Short: "List available formats for a URL",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		var info struct {
			Title        string `json:"title"`
			VideoFormats []struct {
				ID         string `json:"id"`
				Ext        string `json:"ext"`
				Resolution string `json:"resolution"`
			} `json:"video_formats"`
			AudioFormats []struct {
				ID  string  `json:"id"`
				Ext string  `json:"ext"`
				ABR float64 `json:"abr"`
			} `json:"audio_formats"`
			SubtitleLangs    []string `json:"subtitle_langs"`
			AutoCaptionLangs []string `json:"auto_caption_langs"`
		}
		getJSON("/api/v1/formats?url="+url.QueryEscape(args[0]), &info)

		fmt.Printf("Title: %s\n\n", info.Title)
		fmt.Println("Video formats:")
		for _, f := range info.VideoFormats {
			fmt.Printf("  %-8s %-6s %s\n", f.ID, f.Ext, f.Resolution)
		}
		fmt.Println("Audio formats:")
		for _, f := range info.AudioFormats {
			fmt.Printf("  %-8s %-6s %.0fkbps\n", f.ID, f.Ext, f.ABR)
		}
		if len(info.SubtitleLangs) > 0 {
			fmt.Printf("Subtitles: %s\n", strings.Join(info.SubtitleLangs, ", "))
		}
		if len(info.AutoCaptionLangs) > 0 {
			fmt.Printf("Auto captions: %s\n", strings.Join(info.AutoCaptionLangs, ", "))
		}
	},
}

var playlistCmd = &cobra.Command{
	Use:   "playlist [url]",
	Short: "Expand a playlist and enqueue its items",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		preset, _ := cmd.Flags().GetString("preset")
		listOnly, _ := cmd.Flags().GetBool("list-only")
		items, _ := cmd.Flags().GetIntSlice("items")

		if listOnly {
			result := postJSON("/api/v1/playlists/expand", map[string]string{"url": args[0]})
			fmt.Printf("Playlist: %s\n", result["title"])
			items, _ := result["items"].([]interface{})
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "INDEX\tTITLE\tURL")
			for _, it := range items {
				m, _ := it.(map[string]interface{})
				fmt.Fprintf(w, "%v\t%s\t%s\n", m["index"], truncate(str(m["title"]), 50), truncate(str(m["url"]), 40))
			}
			w.Flush()
			return
		}

		payload := map[string]interface{}{
			"url":    args[0],
			"preset": preset,
		}
		if len(items) > 0 {
			payload["selected_indexes"] = items
		}

		result := postJSON("/api/v1/playlists/jobs", payload)
		jobs, _ := result["jobs"].([]interface{})
		fmt.Printf("Enqueued %d jobs from playlist %q\n", len(jobs), result["playlist"])
	},
}

func init() {
	addCmd.Flags().String("video", "", "Video format id (or \"none\")")
	addCmd.Flags().String("audio", "", "Audio format id (or \"none\")")
	addCmd.Flags().StringP("format", "f", "", "Raw yt-dlp format override")
	addCmd.Flags().String("title", "", "Title hint for display")
	addCmd.Flags().String("subs", "", "Comma-separated subtitle languages")
	addCmd.Flags().Bool("all-subs", false, "Download all subtitle languages")
	addCmd.Flags().Bool("auto-captions", false, "Also download auto-generated captions")
	listCmd.Flags().StringP("status", "s", "", "Filter by status")
	playlistCmd.Flags().StringP("preset", "p", "best", "Quality preset (best, 2160, 1440, 1080, 720, 480, 360, audio)")
	playlistCmd.Flags().Bool("list-only", false, "List playlist items without enqueueing")
	playlistCmd.Flags().IntSlice("items", nil, "Playlist indexes to enqueue (default all)")
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}

func jobURL(job map[string]interface{}) string {
	if spec, ok := job["spec"].(map[string]interface{}); ok {
		return str(spec["url"])
	}
	return str(job["url"])
}

func progressOf(job map[string]interface{}) string {
	progress, ok := job["progress"].(map[string]interface{})
	if !ok {
		return "-"
	}
	pct, ok := progress["percent"].(float64)
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", pct)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
