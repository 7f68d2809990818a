package api

import (
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/lockboxhq/lockbox/filesystem"
	"github.com/lockboxhq/lockbox/http"
	"github.com/lockboxhq/lockbox/session"
	"github.com/lockboxhq/lockbox/storage"
	"github.com/lockboxhq/lockbox/validation"
)

const Prefix = "/a/v1/"

const sessionCookieName = "session"

// APIHandler implements the file sharing API under /a/v1/.
type APIHandler struct {
	store    *storage.Store
	blobs    filesystem.BlobStore
	sessions session.Store
	logger   *slog.Logger

	// webDir holds the preview pages served by the preview endpoint.
	webDir string
}

func NewAPIHandler(store *storage.Store, blobs filesystem.BlobStore, sessions session.Store, logger *slog.Logger, webDir string) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIHandler{
		store:    store,
		blobs:    blobs,
		sessions: sessions,
		logger:   logger,
		webDir:   webDir,
	}
}

func (h *APIHandler) CanHandle(req *http.Request) bool {
	return strings.HasPrefix(req.Path, Prefix)
}

func (h *APIHandler) Handle(req *http.Request, res *http.Response) {
	path := strings.Split(strings.TrimPrefix(req.Path, Prefix), "/")
	body := h.jsonBody(req)

	// API responses must not be cached by the browser.
	res.Headers.Set("Cache-Control", "no-store")

	switch path[0] {
	case "register":
		h.register(req, body, res)
	case "login":
		h.login(req, body, res)
	case "user":
		h.user(req, res)
	case "upload":
		h.upload(req, path, res)
	case "rename":
		h.rename(req, body, res)
	case "move":
		h.move(req, body, res)
	case "delete":
		h.delete(req, body, res)
	case "folder":
		h.folder(req, body, res)
	case "listall":
		h.listAll(req, res)
	case "preview":
		h.preview(req, path, res)
	case "share":
		h.share(req, body, res)
	case "sharedetails":
		h.shareDetails(req, body, res)
	default:
		ctx := req.Context()
		if ok, _ := h.store.Files.CheckFileID(ctx, path[0]); ok {
			switch req.Method {
			case http.MethodGet:
				h.download(req, path, res)
			case http.MethodPost:
				h.update(req, path, res)
			}
		} else if ok, _ := h.store.Shares.CheckShareID(ctx, path[0]); ok {
			h.downloadShare(req, path, body, res)
		}
	}
}

// jsonBody decodes an in-memory JSON body. Anything else, including a
// missing or streamed body, yields an empty map.
func (h *APIHandler) jsonBody(req *http.Request) map[string]any {
	if req.Body == nil {
		return map[string]any{}
	}
	if req.Headers.Get("Content-Type") != "application/json" {
		return map[string]any{}
	}

	var body map[string]any
	if err := json.Unmarshal(req.Body, &body); err != nil {
		h.logger.Debug("undecodable json body", "error", err)
		return map[string]any{}
	}
	return body
}

// invalidData is the API's uniform rejection: status 500 with reason
// phrase "Invalid Form Data" and a message for the user.
func invalidData(res *http.Response, message string) {
	res.WithStatus(http.StatusInternalServerError).WithJson(map[string]string{
		"message": message,
	})
	res.Message = "Invalid Form Data"
}

// checkLogin resolves the session cookie against the caller's address.
func (h *APIHandler) checkLogin(req *http.Request, res *http.Response) (session.Session, bool) {
	cookie, err := req.Cookie(sessionCookieName)
	if err != nil {
		invalidData(res, "You need to login.")
		return session.Session{}, false
	}

	sess, err := h.sessions.Get(cookie.Value, req.Remote)
	if err != nil {
		invalidData(res, "You need to login.")
		return session.Session{}, false
	}
	return sess, true
}

func hashPassword(password string) string {
	digest := sha512.Sum512([]byte(password))
	return hex.EncodeToString(digest[:])
}

func stringField(body map[string]any, name string) (string, bool) {
	value, ok := body[name].(string)
	return value, ok
}

func (h *APIHandler) register(req *http.Request, body map[string]any, res *http.Response) {
	ctx := req.Context()

	violations := validation.ValidateMap(body, map[string][]string{
		"userid": {"required", "min:3"},
		"email":  {"required", "email"},
		"passwd": {"required"},
	})

	if len(violations.Errors["userid"]) > 0 {
		invalidData(res, "The User ID has to be at least 3 characters long!")
		return
	}
	userid, _ := stringField(body, "userid")

	if taken, err := h.store.Users.IDExists(ctx, userid); err != nil || taken {
		invalidData(res, "This User ID is already taken!")
		return
	}

	if len(violations.Errors["email"]) > 0 {
		invalidData(res, "Invalid Email address!")
		return
	}
	email, _ := stringField(body, "email")

	if taken, err := h.store.Users.EmailExists(ctx, email); err != nil || taken {
		invalidData(res, "This Email address is already taken!")
		return
	}

	if len(violations.Errors["passwd"]) > 0 {
		invalidData(res, "Failed to transmit password!")
		return
	}
	password, _ := stringField(body, "passwd")

	if err := h.store.Users.Register(ctx, userid, email, hashPassword(password)); err != nil {
		h.logger.Error("registering user failed", "error", err)
		invalidData(res, "This User ID is already taken!")
		return
	}

	res.WithJson(map[string]string{"location": "/login"})
}

func (h *APIHandler) login(req *http.Request, body map[string]any, res *http.Response) {
	userid, ok := stringField(body, "userid")
	if !ok {
		invalidData(res, "Please provide a User ID!")
		return
	}
	password, ok := stringField(body, "passwd")
	if !ok {
		invalidData(res, "Failed to transmit password!")
		return
	}

	ok, err := h.store.Users.Login(req.Context(), userid, hashPassword(password))
	if err != nil {
		h.logger.Error("login lookup failed", "error", err)
	}
	if !ok {
		invalidData(res, "Could not login with these credentials!")
		return
	}

	sess, err := h.sessions.Create(req.Remote, userid)
	if err != nil {
		invalidData(res, "Could not login with these credentials!")
		return
	}

	res.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	res.WithJson(map[string]string{"location": fmt.Sprintf("/~%s/", userid)})
}

func (h *APIHandler) user(req *http.Request, res *http.Response) {
	sess, ok := h.checkLogin(req, res)
	if !ok {
		return
	}

	res.WithJson(map[string]string{"user_name": sess.UserID})
}

func (h *APIHandler) upload(req *http.Request, path []string, res *http.Response) {
	if req.Body == nil && req.Stream == nil {
		invalidData(res, "No data provided!")
		return
	}

	sess, ok := h.checkLogin(req, res)
	if !ok {
		return
	}

	var parentID, fileName string
	switch {
	case len(path) == 2:
		parentID, fileName = "", path[1]
	case len(path) > 2:
		parentID, fileName = path[1], path[2]
	default:
		invalidData(res, "Invalid Data.")
		return
	}

	ctx := req.Context()

	free, err := h.store.Files.NameCheck(ctx, sess.UserID, parentID, fileName)
	if err != nil || !free {
		invalidData(res, "A file with this name already exists!")
		return
	}

	fileID, err := h.store.Files.MakeFile(ctx, sess.UserID, parentID, fileName)
	if err != nil {
		h.logger.Error("recording file failed", "error", err)
		invalidData(res, "Invalid Data.")
		return
	}

	if err := h.writeBlob(req, fileID); err != nil {
		h.logger.Error("storing upload failed", "file_id", fileID, "error", err)
		h.store.Files.Delete(ctx, fileID)
		invalidData(res, "Invalid Data.")
		return
	}

	res.WithJson(map[string]string{"file_id": fileID})
}

func (h *APIHandler) update(req *http.Request, path []string, res *http.Response) {
	if req.Body == nil && req.Stream == nil {
		invalidData(res, "No data provided!")
		return
	}

	sess, ok := h.checkLogin(req, res)
	if !ok {
		return
	}

	fileID := path[0]
	ctx := req.Context()

	exists, err := h.store.Files.CheckFileID(ctx, fileID)
	if err != nil || !exists {
		invalidData(res, "The file does not exist or you do not have permissions for it.")
		return
	}
	allowed, err := h.store.Files.CanDownload(ctx, sess.UserID, fileID)
	if err != nil || !allowed {
		invalidData(res, "The file does not exist or you do not have permissions for it.")
		return
	}

	if err := h.writeBlob(req, fileID); err != nil {
		h.logger.Error("overwriting file failed", "file_id", fileID, "error", err)
		invalidData(res, "Invalid Data.")
	}
}

// writeBlob drains the request body into the blob store, streaming when
// the body is streamed.
func (h *APIHandler) writeBlob(req *http.Request, fileID string) error {
	w, err := h.blobs.Create(fileID)
	if err != nil {
		return err
	}

	if req.Stream != nil {
		if err := req.Stream.ReceiveInto(w); err != nil {
			w.Close()
			return err
		}
	} else if _, err := w.Write(req.Body); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func (h *APIHandler) download(req *http.Request, path []string, res *http.Response) {
	sess, ok := h.checkLogin(req, res)
	if !ok {
		return
	}

	fileID := path[0]
	doDownload := len(path) > 1 && path[1] == "download"
	ctx := req.Context()

	allowed, err := h.store.Files.CanDownload(ctx, sess.UserID, fileID)
	if err != nil || !allowed {
		invalidData(res, "You cannot download this file!")
		return
	}
	if folder, _ := h.store.Files.CheckFolderID(ctx, fileID); folder {
		invalidData(res, "You cannot download a folder!")
		return
	}

	name, err := h.store.Files.GetName(ctx, fileID)
	if err != nil {
		invalidData(res, "You cannot download this file!")
		return
	}

	h.sendBlob(res, fileID, name, doDownload)
}

// sendBlob streams a stored blob with the mime type guessed from its
// recorded name.
func (h *APIHandler) sendBlob(res *http.Response, fileID, name string, doDownload bool) {
	blobPath, err := h.blobs.Path(fileID)
	if err != nil {
		h.logger.Error("blob missing for file", "file_id", fileID, "error", err)
		invalidData(res, "You cannot download this file!")
		return
	}

	res.Stream = http.NewSender(blobPath)
	res.Headers.Set("Content-Type", http.GetMimeType(name))
	if doDownload {
		res.Headers.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	}
}

func (h *APIHandler) rename(req *http.Request, body map[string]any, res *http.Response) {
	sess, ok := h.checkLogin(req, res)
	if !ok {
		return
	}

	ctx := req.Context()
	fileID, hasFile := stringField(body, "file_id")

	if exists, _ := h.store.Files.CheckFileID(ctx, fileID); !hasFile || !exists {
		invalidData(res, "File does not exist.")
		return
	}
	if allowed, _ := h.store.Files.CanDownload(ctx, sess.UserID, fileID); !allowed {
		invalidData(res, "You can't do that!")
		return
	}

	newName, _ := stringField(body, "new_name")
	if newName == "" {
		invalidData(res, "No new name specified!")
		return
	}

	if err := h.store.Files.Rename(ctx, fileID, newName); err != nil {
		h.logger.Error("renaming file failed", "file_id", fileID, "error", err)
		invalidData(res, "File does not exist.")
	}
}

func (h *APIHandler) move(req *http.Request, body map[string]any, res *http.Response) {
	sess, ok := h.checkLogin(req, res)
	if !ok {
		return
	}

	ctx := req.Context()
	fileID, hasFile := stringField(body, "file_id")

	if exists, _ := h.store.Files.CheckFileID(ctx, fileID); !hasFile || !exists {
		invalidData(res, "File does not exist.")
		return
	}
	if allowed, _ := h.store.Files.CanDownload(ctx, sess.UserID, fileID); !allowed {
		invalidData(res, "You can't do that!")
		return
	}

	folderID, hasFolder := stringField(body, "folder_id")
	if !hasFolder {
		invalidData(res, "The target path does not exist.")
		return
	}
	if folderID != "" {
		if exists, _ := h.store.Files.CheckFolderID(ctx, folderID); !exists {
			invalidData(res, "The target path does not exist.")
			return
		}
	}

	if err := h.store.Files.Move(ctx, fileID, folderID); err != nil {
		h.logger.Error("moving file failed", "file_id", fileID, "error", err)
		invalidData(res, "The target path does not exist.")
	}
}

func (h *APIHandler) delete(req *http.Request, body map[string]any, res *http.Response) {
	sess, ok := h.checkLogin(req, res)
	if !ok {
		return
	}

	ctx := req.Context()
	fileID, hasFile := stringField(body, "file_id")

	if exists, _ := h.store.Files.CheckFileID(ctx, fileID); !hasFile || !exists {
		invalidData(res, "File does not exist.")
		return
	}
	if allowed, _ := h.store.Files.CanDownload(ctx, sess.UserID, fileID); !allowed {
		invalidData(res, "You can't do that!")
		return
	}

	if err := h.store.Files.Delete(ctx, fileID); err != nil {
		h.logger.Error("deleting file failed", "file_id", fileID, "error", err)
		invalidData(res, "File does not exist.")
		return
	}
	if err := h.blobs.Remove(fileID); err != nil {
		h.logger.Error("deleting blob failed", "file_id", fileID, "error", err)
	}
}

func (h *APIHandler) folder(req *http.Request, body map[string]any, res *http.Response) {
	sess, ok := h.checkLogin(req, res)
	if !ok {
		return
	}

	parentID, hasParent := stringField(body, "parent_id")
	folderName, hasName := stringField(body, "folder_name")
	if !hasParent || !hasName {
		invalidData(res, "No data sent!")
		return
	}

	ctx := req.Context()
	if parentID != "" {
		if exists, _ := h.store.Files.CheckFolderID(ctx, parentID); !exists {
			invalidData(res, "The parent folder does not exist!")
			return
		}
	}

	folderID, err := h.store.Files.MakeFolder(ctx, sess.UserID, parentID, folderName)
	if err != nil {
		h.logger.Error("creating folder failed", "error", err)
		invalidData(res, "No data sent!")
		return
	}

	res.WithJson(map[string]string{"folder_id": folderID})
}

func (h *APIHandler) listAll(req *http.Request, res *http.Response) {
	sess, ok := h.checkLogin(req, res)
	if !ok {
		return
	}

	files, err := h.store.Files.ListAll(req.Context(), sess.UserID)
	if err != nil {
		h.logger.Error("listing files failed", "user", sess.UserID, "error", err)
		invalidData(res, "You need to login.")
		return
	}

	res.WithJson(files)
}

func (h *APIHandler) preview(req *http.Request, path []string, res *http.Response) {
	sess, ok := h.checkLogin(req, res)
	if !ok {
		return
	}

	if len(path) < 2 || path[1] == "" {
		invalidData(res, "No file ID specified!")
		return
	}
	fileID := path[1]
	ctx := req.Context()

	if allowed, _ := h.store.Files.CanDownload(ctx, sess.UserID, fileID); !allowed {
		invalidData(res, "You can't do that")
		return
	}

	name, err := h.store.Files.GetName(ctx, fileID)
	if err != nil {
		invalidData(res, "You can't do that")
		return
	}

	mime := http.GetMimeType(name)
	var page string
	switch {
	case strings.HasPrefix(mime, "text/"):
		page = "text_preview.html"
	case strings.HasPrefix(mime, "image/"):
		page = "img_preview.html"
	case strings.HasPrefix(mime, "video/"):
		page = "vid_preview.html"
	default:
		page = "no_preview.html"
	}

	res.WithFile(filepath.Join(h.webDir, page))
}

func (h *APIHandler) share(req *http.Request, body map[string]any, res *http.Response) {
	sess, ok := h.checkLogin(req, res)
	if !ok {
		return
	}

	fileID, hasFile := stringField(body, "file_id")
	if !hasFile {
		invalidData(res, "You didn't provide a file id.")
		return
	}

	ctx := req.Context()
	if allowed, _ := h.store.Files.CanDownload(ctx, sess.UserID, fileID); !allowed {
		invalidData(res, "You cannot do that!")
		return
	}

	var passwordHash *string
	if password, hasPassword := stringField(body, "password"); hasPassword {
		hashed := hashPassword(password)
		passwordHash = &hashed
	}

	shareID, err := h.store.Shares.Create(ctx, sess.UserID, fileID, passwordHash)
	if err != nil {
		h.logger.Error("creating share failed", "file_id", fileID, "error", err)
		invalidData(res, "You cannot do that!")
		return
	}

	res.WithJson(map[string]string{"share_id": shareID})
}

func (h *APIHandler) shareDetails(req *http.Request, body map[string]any, res *http.Response) {
	ctx := req.Context()

	shareID, hasShare := stringField(body, "share_id")
	if exists, _ := h.store.Shares.CheckShareID(ctx, shareID); !hasShare || !exists {
		invalidData(res, "You cannot do that!")
		return
	}

	fileID, err := h.store.Shares.FileID(ctx, shareID)
	if err != nil {
		invalidData(res, "You cannot do that!")
		return
	}
	name, err := h.store.Files.GetName(ctx, fileID)
	if err != nil {
		invalidData(res, "You cannot do that!")
		return
	}
	hasPassword, err := h.store.Shares.HasPassword(ctx, shareID)
	if err != nil {
		invalidData(res, "You cannot do that!")
		return
	}

	res.WithJson(map[string]any{
		"name":     name,
		"password": hasPassword,
	})
}

func (h *APIHandler) downloadShare(req *http.Request, path []string, body map[string]any, res *http.Response) {
	shareID := path[0]
	doDownload := len(path) > 1 && path[1] == "download"
	ctx := req.Context()

	var passwordHash *string
	if password, hasPassword := stringField(body, "password"); hasPassword {
		hashed := hashPassword(password)
		passwordHash = &hashed
	}

	allowed, err := h.store.Shares.CanDownload(ctx, shareID, passwordHash)
	if err != nil || !allowed {
		invalidData(res, "You cannot do that!")
		return
	}

	fileID, err := h.store.Shares.FileID(ctx, shareID)
	if err != nil {
		invalidData(res, "You cannot do that!")
		return
	}
	name, err := h.store.Files.GetName(ctx, fileID)
	if err != nil {
		invalidData(res, "You cannot do that!")
		return
	}

	h.sendBlob(res, fileID, name, doDownload)
}
