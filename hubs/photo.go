package hubs

import (
	"context"
	"image/jpeg"
	"intake/db"
	"intake/rdx"
	"intake/utils"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
)

const hubPicDir = "static/hubpic"

// UploadHubPhoto stores an admin-uploaded hub photo plus a 200px-wide
// thumbnail for the dashboard list.
func UploadHubPhoto(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	hubID := ps.ByName("hubid")

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "photo file is required")
		return
	}
	defer file.Close()

	if !utils.ValidateImageFileType(w, header) {
		return
	}

	if err := utils.EnsureDir(hubPicDir); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to prepare upload directory")
		return
	}

	filename, err := utils.SaveFile(file, header, hubPicDir)
	if err != nil {
		log.Println("hub photo save:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to save photo")
		return
	}

	if err := writeThumbnail(filename); err != nil {
		log.Println("hub photo thumbnail:", err)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var hub Hub
	res := db.HubsCollection.FindOneAndUpdate(ctx, bson.M{"hubid": hubID}, bson.M{"$set": bson.M{"photo": filename}})
	if err := res.Decode(&hub); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Hub not found")
		return
	}

	_ = rdx.Conn.Del(ctx, hubsCacheKey).Err()
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true, "photo": filename})
}

func writeThumbnail(filename string) error {
	img, err := imaging.Open(filepath.Join(hubPicDir, filename))
	if err != nil {
		return err
	}
	resized := imaging.Resize(img, 200, 0, imaging.Lanczos) // maintain aspect ratio

	thumbDir := filepath.Join(hubPicDir, "thumb")
	if err := os.MkdirAll(thumbDir, 0o755); err != nil {
		return err
	}
	name := strings.TrimSuffix(filename, filepath.Ext(filename)) + ".jpg"

	out, err := os.Create(filepath.Join(thumbDir, name))
	if err != nil {
		return err
	}
	defer out.Close()

	return jpeg.Encode(out, resized, &jpeg.Options{Quality: 85})
}
