package weread

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
)

const readerURLPrefix = "https://weread.qq.com/web/reader/"

// ReaderURL returns the web reader deep link of a book.
func ReaderURL(bookID string) string {
	return readerURLPrefix + bookStrID(bookID)
}

// bookStrID encodes a book ID the way the web reader expects it in its path:
// an md5-derived prefix, a type code, the hex-encoded ID chunks, and a checksum.
func bookStrID(bookID string) string {
	digest := md5Hex(bookID)

	code, chunks := encodeBookID(bookID)
	result := digest[:3] + code + "2" + digest[len(digest)-2:]

	for i, chunk := range chunks {
		result += fmt.Sprintf("%02x", len(chunk)) + chunk
		if i < len(chunks)-1 {
			result += "g"
		}
	}

	if len(result) < 20 {
		result += digest[:20-len(result)]
	}

	return result + md5Hex(result)[:3]
}

// encodeBookID hex-encodes numeric IDs in 9-digit chunks (code "3") and any
// other ID character by character (code "4").
func encodeBookID(bookID string) (string, []string) {
	if isDigits(bookID) {
		var chunks []string
		for i := 0; i < len(bookID); i += 9 {
			end := min(i+9, len(bookID))
			n, _ := strconv.ParseInt(bookID[i:end], 10, 64)
			chunks = append(chunks, strconv.FormatInt(n, 16))
		}
		return "3", chunks
	}

	var encoded string
	for _, r := range bookID {
		encoded += strconv.FormatInt(int64(r), 16)
	}
	return "4", []string{encoded}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
