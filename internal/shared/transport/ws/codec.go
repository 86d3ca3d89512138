package ws

import (
	"encoding/json"

	"Polis/internal/shared/security"

	"github.com/go-think/openssl"
	"github.com/gorilla/websocket"
)

// encode 把消息体编码成一帧。key 为空时是明文 JSON 文本帧；
// 否则 AES-CBC(key 兼作 iv) 加密后 zlib 压缩，走二进制帧。
func encode(body any, key string) (int, []byte, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return 0, nil, err
	}
	if key == "" {
		return websocket.TextMessage, raw, nil
	}
	enc, err := security.AesCBCEncrypt(raw, []byte(key), []byte(key), openssl.PKCS7_PADDING)
	if err != nil {
		return 0, nil, err
	}
	zipped, err := security.Zip(enc)
	if err != nil {
		return 0, nil, err
	}
	return websocket.BinaryMessage, zipped, nil
}

func decode(data []byte, key string, dst any) error {
	if key == "" {
		return json.Unmarshal(data, dst)
	}
	secret, err := security.UnZip(data)
	if err != nil {
		return err
	}
	plain, err := security.AesCBCDecrypt(secret, []byte(key), []byte(key), openssl.PKCS7_PADDING)
	if err != nil {
		return err
	}
	return json.Unmarshal(plain, dst)
}
