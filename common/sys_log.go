package common

import (
	"fmt"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

func SysLog(s string) {
	t := time.Now()
	_, _ = fmt.Fprintf(gin.DefaultWriter, "[SYS] %v | %s \n", t.Format("2006/01/02 - 15:04:05"), s)
}

func SysError(s string) {
	t := time.Now()
	_, _ = fmt.Fprintf(gin.DefaultErrorWriter, "[SYS] %v | %s \n", t.Format("2006/01/02 - 15:04:05"), s)
}

var credentialPattern = regexp.MustCompile(`(?i)(token|bearer)\s+[A-Za-z0-9._\-]+`)

// MaskSensitiveInfo removes credential material from error text before it
// is echoed to a client.
func MaskSensitiveInfo(text string) string {
	return credentialPattern.ReplaceAllString(text, "$1 ***")
}
