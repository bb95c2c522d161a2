package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"
	// RoutePostID is the post detail route pattern.
	RoutePostID = "/posts/{postID}"
	// RoutePostCreate is the post creation route.
	RoutePostCreate = "/posts/create"
	// RoutePostEdit is the post edit route pattern.
	RoutePostEdit = RoutePostID + "/edit"
	// RoutePostDelete is the post delete route pattern.
	RoutePostDelete = RoutePostID + "/delete"
	// RoutePostComment is the add-comment route pattern.
	RoutePostComment = RoutePostID + "/comment"
	// RouteCommentEdit is the edit-comment route pattern.
	RouteCommentEdit = RoutePostID + "/edit_comment/{commentID}"
	// RouteCommentDelete is the delete-comment route pattern.
	RouteCommentDelete = RoutePostID + "/delete_comment/{commentID}"
	// RouteCategorySlug is the category listing route pattern.
	RouteCategorySlug = "/category/{slug}"
	// RouteProfile is the profile route pattern.
	RouteProfile = "/profile/{username}"
	// RouteProfileEdit is the own-profile edit route.
	RouteProfileEdit = "/profile/edit"

	// RouteLogin is the login route.
	RouteLogin = "/auth/login"
	// RouteLogout is the logout route.
	RouteLogout = "/auth/logout"
	// RouteRegistration is the registration route.
	RouteRegistration = "/auth/registration"
	// RoutePasswordChange is the password change route.
	RoutePasswordChange = "/auth/password_change"

	// RouteAbout is the about static page route.
	RouteAbout = "/pages/about"
	// RouteRules is the rules static page route.
	RouteRules = "/pages/rules"
)

// Admin route patterns, registered under /admin.
const (
	RouteAdmin              = "/admin"
	RouteAdminCategories    = "/categories"
	RouteAdminCategoriesNew = "/categories/new"
	RouteAdminCategoriesID  = "/categories/{id}"
	RouteAdminCategoriesDel = "/categories/{id}/delete"
	RouteAdminLocations     = "/locations"
	RouteAdminLocationsNew  = "/locations/new"
	RouteAdminLocationsID   = "/locations/{id}"
	RouteAdminLocationsDel  = "/locations/{id}/delete"
	RouteAdminPosts         = "/posts"
	RouteAdminPostsPublish  = "/posts/{id}/publish"
	RouteAdminEvents        = "/events"
)

// Redirect targets.
const (
	redirectLogin           = RouteLogin
	redirectRegistration    = RouteRegistration
	redirectAdmin           = RouteAdmin
	redirectAdminCategories = RouteAdmin + RouteAdminCategories
	redirectAdminLocations  = RouteAdmin + RouteAdminLocations
	redirectAdminPosts      = RouteAdmin + RouteAdminPosts
)

// Items per page for the public listings.
const PostsPerPage = 10

// Items per page for admin listings.
const (
	AdminPostsPerPage  = 20
	AdminEventsPerPage = 50
)
