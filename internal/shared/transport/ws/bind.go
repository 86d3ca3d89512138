package ws

import (
	"errors"

	"github.com/go-viper/mapstructure/v2"
)

// BindMsg 将 WsMsgReq.Body.Msg 解到目标结构体，字段按 json tag 匹配。
func BindMsg(req *WsMsgReq, dst any) error {
	if req == nil || req.Body == nil {
		return errors.New("ws request body is nil")
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           dst,
	})
	if err != nil {
		return err
	}
	return dec.Decode(req.Body.Msg)
}
