package common

import "time"

func GetTimestamp() int64 {
	return time.Now().Unix()
}

func GetTimestampMilli() int64 {
	return time.Now().UnixMilli()
}
