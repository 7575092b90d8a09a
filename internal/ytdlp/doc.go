// Package ytdlp wraps the yt-dlp CLI used to resolve per-item metadata and to
// download media with its sidecar files.
//
// Download flags are assembled from DownloadOptions into an argument vector;
// nothing is passed through a shell except the per-file hook, which yt-dlp
// itself runs and which is quoted with go-shellquote.
package ytdlp
