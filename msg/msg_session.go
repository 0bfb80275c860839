package msg

import (
	"github.com/huoshan017/sronet/common"
	"github.com/huoshan017/sronet/packet"
)

// MsgSession sends typed values over a session with a fixed codec
type MsgSession struct {
	sess  *common.Session
	codec IMsgCodec
}

func NewMsgSession(sess *common.Session, codec IMsgCodec) *MsgSession {
	return &MsgSession{sess: sess, codec: codec}
}

func (s *MsgSession) GetSess() *common.Session {
	return s.sess
}

func (s *MsgSession) GetCodec() IMsgCodec {
	return s.codec
}

func (s *MsgSession) GetId() uint64 {
	return s.sess.GetId()
}

func (s *MsgSession) SetData(key string, value any) {
	s.sess.SetData(key, value)
}

func (s *MsgSession) GetData(key string) any {
	return s.sess.GetData(key)
}

func (s *MsgSession) SendMsg(msgid packet.ID, msg any) error {
	return s.sendMsg(msgid, msg, false)
}

// SendMsgEncrypted send msg encrypted with the session key, it must fit in one frame
func (s *MsgSession) SendMsgEncrypted(msgid packet.ID, msg any) error {
	return s.sendMsg(msgid, msg, true)
}

func (s *MsgSession) sendMsg(msgid packet.ID, msg any, encrypted bool) error {
	m, err := Pack(s.codec, msgid, msg, encrypted)
	if err != nil {
		return err
	}
	return s.sess.Send(m)
}
