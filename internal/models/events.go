package models

// Event is the kind of change an Activity row describes.
type Event string

const (
	EventBoardCreate      Event = "board.create"
	EventBoardUpdate      Event = "board.update"
	EventBoardChangeTitle Event = "board.change_title"
	EventBoardChangeOwner Event = "board.change_owner"
	EventBoardArchive     Event = "board.archive"
	EventBoardRevert      Event = "board.revert"

	EventMemberAdd          Event = "member.add"
	EventMemberChangeRole   Event = "member.change_role"
	EventMemberAccessRevoke Event = "member.access_revoke"
	EventMemberDelete       Event = "member.delete"
	EventMemberRevert       Event = "member.revert"

	EventListCreate  Event = "list.create"
	EventListUpdate  Event = "list.update"
	EventListArchive Event = "list.archive"
	EventListRevert  Event = "list.revert"
	EventListDelete  Event = "list.delete"
	EventListReorder Event = "list.reorder"

	EventCardCreate      Event = "card.create"
	EventCardUpdate      Event = "card.update"
	EventCardChangeTitle Event = "card.change_title"
	EventCardMove        Event = "card.move"
	EventCardArchive     Event = "card.archive"
	EventCardRevert      Event = "card.revert"
	EventCardDelete      Event = "card.delete"
	EventCardReorder     Event = "card.reorder"

	EventCardComment       Event = "card.comment"
	EventCardCommentUpdate Event = "card.comment_update"
	EventCardCommentDelete Event = "card.comment_delete"

	EventCardMemberAssign   Event = "card.member.assign"
	EventCardMemberDeassign Event = "card.member.deassign"

	EventCardDateCreate Event = "card.date.create"
	EventCardDateUpdate Event = "card.date.update"
	EventCardDateDelete Event = "card.date.delete"

	EventChecklistCreate     Event = "checklist.create"
	EventChecklistUpdate     Event = "checklist.update"
	EventChecklistDelete     Event = "checklist.delete"
	EventChecklistItemCreate Event = "checklist.item.create"
	EventChecklistItemUpdate Event = "checklist.item.update"
	EventChecklistItemMarked Event = "checklist.item.marked"
	EventChecklistItemAssign Event = "checklist.item.user_assign"
	EventChecklistItemDue    Event = "checklist.item.due_date"
	EventChecklistItemDelete Event = "checklist.item.delete"

	EventFileUpload Event = "file.upload"
	EventFileDelete Event = "file.delete"
)
