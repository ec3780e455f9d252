package http

import (
	"encoding/json"

	"github.com/devconnect/devconnect-server/internal/core"
	"github.com/devconnect/devconnect-server/internal/proto"
)

// inboundToCommand validates a wire event against the socket's bound
// identity and maps it to a hub command. A non-nil proto.Error means the
// event was rejected and should be answered on this socket only; a non-nil
// error means the payload was unreadable and the connection should close.
func inboundToCommand(client *core.Client, inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeJoinChat:
		var join proto.JoinChatData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return nil, nil, err
		}
		if protoErr := checkIdentity(client, join.SelfID, join.PeerID); protoErr != nil {
			return nil, protoErr, nil
		}
		return &core.Command{
			Kind:   core.CommandJoinChat,
			PeerID: join.PeerID,
		}, nil, nil
	case proto.InboundTypeSendMessage:
		var msg proto.SendMessageData
		if err := json.Unmarshal(inbound.Data, &msg); err != nil {
			return nil, nil, err
		}
		if protoErr := checkIdentity(client, msg.SelfID, msg.PeerID); protoErr != nil {
			return nil, protoErr, nil
		}
		// msg.CreatedAt is deliberately dropped: the server assigns
		// timestamps so transcript order is consistent across clients.
		return &core.Command{
			Kind:   core.CommandSendMessage,
			PeerID: msg.PeerID,
			Text:   msg.Text,
		}, nil, nil
	case proto.InboundTypeMarkAsSeen:
		var seen proto.MarkAsSeenData
		if err := json.Unmarshal(inbound.Data, &seen); err != nil {
			return nil, nil, err
		}
		if protoErr := checkIdentity(client, seen.SelfID, seen.PeerID); protoErr != nil {
			return nil, protoErr, nil
		}
		return &core.Command{
			Kind:   core.CommandMarkSeen,
			PeerID: seen.PeerID,
		}, nil, nil
	default:
		return nil, &proto.Error{Code: "invalid_message", Msg: "unknown event type"}, nil
	}
}

// checkIdentity enforces the handshake-bound identity: an event may omit
// selfId, but one that carries it must match the authenticated user.
func checkIdentity(client *core.Client, selfID, peerID string) *proto.Error {
	if peerID == "" {
		return &proto.Error{Code: core.ErrCodeBadRequest, Msg: "peerId is required"}
	}
	if selfID != "" && selfID != client.UserID {
		return &proto.Error{Code: core.ErrCodeIdentityMismatch, Msg: "selfId does not match connection identity"}
	}
	if peerID == client.UserID {
		return &proto.Error{Code: core.ErrCodeBadRequest, Msg: "cannot chat with yourself"}
	}
	return nil
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventReceiveMessage:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventReceiveMessage,
			Data: proto.ReceiveMessageData{
				ID:         event.Message.ID,
				SenderID:   event.Message.SenderID,
				SenderName: event.Message.SenderName,
				Text:       event.Message.Text,
				Status:     event.Message.Status,
				CreatedAt:  event.Message.CreatedAt,
			},
		}
	case core.EventStatusUpdate:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventUpdateMessageStatus,
			Data: proto.UpdateMessageStatusData{
				Status:     event.Status,
				MessageIDs: event.MessageIDs,
			},
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}
