/*
Package s3dev is a tiny S3 stand-in for local development. It understands
just enough of the protocol for the image store: creating buckets, putting
objects and reading them back. Objects live on disk under a root folder.
*/
package s3dev

import (
	"encoding/xml"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/quillpress/quill/src/logging"
	"github.com/quillpress/quill/src/website"
	"github.com/spf13/cobra"
)

func init() {
	var addr string
	s3Command := &cobra.Command{
		Use:   "s3dev [storage folder]",
		Short: "Run a local S3 server that stores objects in the filesystem",
		Run: func(cmd *cobra.Command, args []string) {
			root := "./tmp/s3"
			if len(args) > 0 {
				root = args[0]
			}
			if err := os.MkdirAll(root, fs.ModePerm); err != nil {
				logging.Fatal().Err(err).Msg("failed to create storage folder")
			}

			logging.Info().Str("addr", addr).Str("root", root).Msg("Serving local S3")
			if err := http.ListenAndServe(addr, NewServer(root)); err != nil {
				logging.Fatal().Err(err).Msg("local S3 server stopped")
			}
		},
	}
	s3Command.Flags().StringVar(&addr, "addr", ":9003", "Address to listen on")

	website.WebsiteCommand.AddCommand(s3Command)
}

type Server struct {
	Root string
}

func NewServer(root string) *Server {
	return &Server{Root: root}
}

type s3Error struct {
	XMLName xml.Name `xml:"Error"`
	Code    string   `xml:"Code"`
	Message string   `xml:"Message"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	xml.NewEncoder(w).Encode(s3Error{Code: code, Message: msg})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	bucket, key := bucketAndKey(r.URL.Path)
	logging.Debug().
		Str("method", r.Method).
		Str("bucket", bucket).
		Str("key", key).
		Msg("local S3 request")

	if bucket == "" || strings.Contains(bucket, "..") || strings.Contains(key, "..") {
		writeError(w, http.StatusBadRequest, "InvalidBucketName", "bad bucket or key")
		return
	}
	bucketDir := filepath.Join(s.Root, bucket)

	switch r.Method {
	case http.MethodPut:
		if key == "" {
			if err := os.MkdirAll(bucketDir, fs.ModePerm); err != nil {
				writeError(w, http.StatusInternalServerError, "InternalError", err.Error())
				return
			}
			w.Header().Set("Location", "/"+bucket)
			return
		}

		if _, err := os.Stat(bucketDir); errors.Is(err, fs.ErrNotExist) {
			writeError(w, http.StatusNotFound, "NoSuchBucket", "The specified bucket does not exist")
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "IncompleteBody", err.Error())
			return
		}
		if err := os.WriteFile(filepath.Join(bucketDir, key), body, 0644); err != nil {
			writeError(w, http.StatusInternalServerError, "InternalError", err.Error())
			return
		}
		if contentType := r.Header.Get("Content-Type"); contentType != "" {
			os.WriteFile(filepath.Join(bucketDir, key+".content-type"), []byte(contentType), 0644)
		}
	case http.MethodGet, http.MethodHead:
		data, err := os.ReadFile(filepath.Join(bucketDir, key))
		if err != nil {
			writeError(w, http.StatusNotFound, "NoSuchKey", "The specified key does not exist")
			return
		}
		if contentType, err := os.ReadFile(filepath.Join(bucketDir, key+".content-type")); err == nil {
			w.Header().Set("Content-Type", string(contentType))
		}
		if r.Method == http.MethodGet {
			w.Write(data)
		}
	default:
		writeError(w, http.StatusNotImplemented, "NotImplemented", "method not supported")
	}
}

// Keys are flattened so that nested keys become single files.
func bucketAndKey(path string) (string, string) {
	path = strings.TrimPrefix(path, "/")
	bucket, key, _ := strings.Cut(path, "/")
	return bucket, strings.ReplaceAll(key, "/", "~")
}
